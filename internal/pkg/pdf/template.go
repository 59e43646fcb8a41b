// internal/pkg/pdf/template.go
package pdf

import "html/template"

var invoiceTmpl = template.Must(template.New("invoice").Parse(invoiceTemplate))

// Invoice HTML template
const invoiceTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Factura {{.FiscalNumber}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            margin: 0;
            padding: 20px;
            color: #333;
        }
        .header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 30px;
            border-bottom: 2px solid #eee;
            padding-bottom: 20px;
        }
        .fiscal-number {
            font-size: 22px;
            font-weight: bold;
        }
        .company-info p, .invoice-info p {
            margin: 2px 0;
            font-size: 12px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 25px;
        }
        th, td {
            border: 1px solid #ddd;
            padding: 8px;
            font-size: 12px;
            text-align: right;
        }
        th { background: #f5f5f5; }
        td.name, th.name { text-align: left; }
        .totals td.label {
            text-align: left;
            font-weight: bold;
        }
        .grand-total { font-size: 14px; font-weight: bold; }
    </style>
</head>
<body>
    <div class="header">
        <div class="company-info">
            <h2>{{.Company.Name}}</h2>
            <p>{{.Company.Address}}</p>
            <p>RIF: {{.Company.TaxID}}</p>
        </div>
        <div class="invoice-info">
            <p class="fiscal-number">FACTURA {{.FiscalNumber}}</p>
            <p>Pedido: {{.OrderNumber}}</p>
            <p>Fecha: {{.InvoiceDate}}</p>
            <p>Pago: {{.Order.PaymentMethod}}</p>
        </div>
    </div>

    <table>
        <tr>
            <th class="name">Producto</th>
            <th>Cantidad</th>
            <th>Precio ({{.Order.Currency}})</th>
            <th>Descuento</th>
            <th>Subtotal</th>
        </tr>
        {{range .Order.Items}}
        <tr>
            <td class="name">{{.Name}}{{if .DiscountCode}} ({{.DiscountCode}}){{end}}</td>
            <td>{{.Quantity}}</td>
            <td>{{.UnitPrice}}</td>
            <td>{{.DiscountAmount}}</td>
            <td>{{.Subtotal}}</td>
        </tr>
        {{end}}
    </table>

    <table class="totals">
        <tr>
            <td class="label">Concepto</td>
            {{range .Currencies}}<th>{{.}}</th>{{end}}
        </tr>
        <tr>
            <td class="label">Subtotal</td>
            {{range $cur := .Currencies}}<td>{{index $.Breakdown.Subtotal $cur}}</td>{{end}}
        </tr>
        <tr>
            <td class="label">Descuento</td>
            {{range $cur := .Currencies}}<td>{{index $.Breakdown.Discount $cur}}</td>{{end}}
        </tr>
        {{range $tax := .Breakdown.Taxes}}
        <tr>
            <td class="label">{{$tax.Name}} ({{$tax.Percentage}}%)</td>
            {{range $cur := $.Currencies}}<td>{{index $tax.Amount $cur}}</td>{{end}}
        </tr>
        {{end}}
        <tr>
            <td class="label">Comisión de pago</td>
            {{range $cur := .Currencies}}<td>{{index $.Breakdown.PaymentFee $cur}}</td>{{end}}
        </tr>
        <tr class="grand-total">
            <td class="label">Total</td>
            {{range $cur := .Currencies}}<td>{{index $.Breakdown.GrandTotal $cur}}</td>{{end}}
        </tr>
    </table>

    {{range $cur, $rate := .Breakdown.Rates}}
    <p style="font-size:11px">Tasa {{$cur}}: {{$rate.OfficialRate}} ({{$rate.Source}}, {{$rate.EffectiveDate.Format "02/01/2006"}})</p>
    {{end}}
</body>
</html>
`
