// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/domain/order"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	Order        *order.Order
	StoreName    string
	SupportEmail string
	Currency     string
	IssuedAt     string
}

// GenerateInvoice renders the order as a PDF invoice
func (s *Service) GenerateInvoice(o *order.Order) (*bytes.Buffer, error) {
	data := InvoiceData{
		Order:        o,
		StoreName:    s.config.Store.Name,
		SupportEmail: s.config.Store.SupportEmail,
		Currency:     s.config.Store.Currency,
		IssuedAt:     o.CreatedAt.Format("02/01/2006"),
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
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data InvoiceData) (string, error) {
	tmpl := template.Must(template.New("invoice").Parse(invoiceTemplate))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// Invoice HTML template
const invoiceTemplate = `
<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <title>Factura {{.Order.TrackingCode}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 24px; color: #222; }
        .header { display: flex; justify-content: space-between; margin-bottom: 24px; }
        .store { font-size: 22px; font-weight: bold; }
        .meta { text-align: right; font-size: 12px; color: #555; }
        h2 { font-size: 16px; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
        table { width: 100%; border-collapse: collapse; margin-top: 12px; }
        th { text-align: left; background: #f4f4f4; padding: 8px; font-size: 12px; }
        td { padding: 8px; border-bottom: 1px solid #eee; font-size: 12px; }
        .num { text-align: right; }
        .total-row td { font-weight: bold; border-top: 2px solid #222; }
        .footer { margin-top: 32px; font-size: 11px; color: #777; }
    </style>
</head>
<body>
    <div class="header">
        <div class="store">{{.StoreName}}</div>
        <div class="meta">
            <div>Pedido {{.Order.TrackingCode}}</div>
            <div>Fecha: {{.IssuedAt}}</div>
            <div>Estado: {{.Order.Status}}</div>
        </div>
    </div>

    <h2>Dirección de envío</h2>
    <p>{{.Order.Address}}{{if .Order.Apartment}}, {{.Order.Apartment}}{{end}}<br>{{.Order.City}}</p>

    <h2>Detalle</h2>
    <table>
        <thead>
            <tr>
                <th>Producto</th>
                <th class="num">Cantidad</th>
                <th class="num">Precio unitario</th>
                <th class="num">Subtotal</th>
            </tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td>{{.ProductName}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{.UnitPrice}} {{$.Currency}}</td>
                <td class="num">{{.Subtotal}} {{$.Currency}}</td>
            </tr>
            {{end}}
            <tr class="total-row">
                <td colspan="3">Total</td>
                <td class="num">{{.Order.Total}} {{.Currency}}</td>
            </tr>
        </tbody>
    </table>

    <div class="footer">
        ¿Preguntas sobre tu pedido? Escríbenos a {{.SupportEmail}}.
    </div>
</body>
</html>
`
