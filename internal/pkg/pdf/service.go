// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/com2pa/backend-ecommerce/internal/config"
	"github.com/com2pa/backend-ecommerce/internal/domain/order"
	"github.com/com2pa/backend-ecommerce/internal/domain/pricing"
)

// Service renders fiscal invoices as PDF documents
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg}
}

// GenerateInvoice renders the invoice for an order. The figures come from
// the order's stored breakdown, never from a recomputation.
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	var breakdown pricing.Breakdown
	if err := json.Unmarshal(o.Breakdown, &breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode fiscal breakdown: %w", err)
	}

	data := InvoiceData{
		FiscalNumber: o.FiscalNumber,
		OrderNumber:  o.OrderNumber,
		InvoiceDate:  o.CreatedAt.Format("January 2, 2006"),
		Order:        o,
		Breakdown:    breakdown,
		Currencies:   s.currencyColumns(breakdown),
		Company: CompanyInfo{
			Name:    s.config.App.CompanyName,
			Address: s.config.App.CompanyAddress,
			TaxID:   s.config.App.CompanyTaxID,
		},
	}

	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// currencyColumns fixes a stable column order for the totals table:
// base currency first, then the rest alphabetically.
func (s *Service) currencyColumns(b pricing.Breakdown) []string {
	base := s.config.Commerce.BaseCurrency
	columns := []string{base}
	rest := make([]string, 0, len(b.GrandTotal))
	for currency := range b.GrandTotal {
		if currency != base {
			rest = append(rest, currency)
		}
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

func (s *Service) generateHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// InvoiceData is the template input
type InvoiceData struct {
	FiscalNumber string
	OrderNumber  string
	InvoiceDate  string
	Order        *order.Order
	Breakdown    pricing.Breakdown
	Currencies   []string
	Company      CompanyInfo
}

// CompanyInfo identifies the issuing company on the invoice
type CompanyInfo struct {
	Name    string
	Address string
	TaxID   string
}
