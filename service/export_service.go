package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"mars3lo-orders/cart"
	"mars3lo-orders/models"
	"mars3lo-orders/utils"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

var exportHeader = []string{"Articolo", "Colore", "Taglia", "Quantità", "Prezzo", "Totale"}

// ExportLine is one printed row of an order sheet
type ExportLine struct {
	Article   string
	Color     string
	Size      string
	Qty       int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// ExportSnapshot is the read-only content of an exported order sheet
type ExportSnapshot struct {
	Reference string
	Customer  string
	Status    models.OrderStatus
	Date      time.Time
	Lines     []ExportLine
	Totals    models.Totals
}

// ExportFile is a rendered export ready to be sent
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// SnapshotFromOrder builds the sheet of an order. Reviewed orders print the
// confirmed quantities, pending orders the requested ones.
func SnapshotFromOrder(view models.OrderView) ExportSnapshot {
	reviewed := view.Status != models.StatusPending
	totals := view.Requested
	if reviewed {
		totals = view.Confirmed
	}

	snap := ExportSnapshot{
		Reference: view.ID,
		Customer:  view.Customer,
		Status:    view.Status,
		Date:      view.CreatedAt,
		Totals:    totals,
	}
	for _, l := range view.Lines {
		qty := l.RequestedQty
		if reviewed {
			qty = l.Confirmed()
		}
		snap.Lines = append(snap.Lines, newExportLine(l.Article, l.Color, l.Size, qty, l.UnitPrice))
	}
	return snap
}

// SnapshotFromCart builds the sheet of a cart that has not been submitted yet
func SnapshotFromCart(c cart.Cart, customer string, discount decimal.Decimal) ExportSnapshot {
	snap := ExportSnapshot{
		Reference: "carrello",
		Customer:  strings.TrimSpace(customer),
		Date:      time.Now(),
		Totals:    cart.Totals(c, discount),
	}
	for _, l := range c.Lines {
		snap.Lines = append(snap.Lines, newExportLine(l.Article, l.Color, l.Size, l.Qty, l.UnitPrice))
	}
	return snap
}

func newExportLine(article, color, size string, qty int, price decimal.Decimal) ExportLine {
	return ExportLine{
		Article:   article,
		Color:     color,
		Size:      size,
		Qty:       qty,
		UnitPrice: price,
		Total:     price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
	}
}

// ExportService renders order sheets as CSV, Excel, HTML or PDF
type ExportService struct {
	pdf  PDFRendererInterface
	logo template.URL
}

// NewExportService creates a new ExportService. pdf may be nil, in which case
// PDF exports fail with a clear error. logoDataURI may be empty.
func NewExportService(pdf PDFRendererInterface, logoDataURI string) *ExportService {
	return &ExportService{pdf: pdf, logo: template.URL(logoDataURI)}
}

// Render produces the export file of snap in format
func (s *ExportService) Render(ctx context.Context, snap ExportSnapshot, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatPDF
	}
	name := exportFileName(snap, format)

	log.Printf("📄 Export: reference=%s format=%s lines=%d", snap.Reference, format, len(snap.Lines))

	switch format {
	case FormatCSV:
		data, err := RenderCSV(snap)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Name: name, ContentType: "text/csv; charset=utf-8", Data: data}, nil
	case FormatXLSX:
		data, err := RenderXLSX(snap)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Name: name, ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Data: data}, nil
	case FormatHTML:
		html, err := s.RenderHTML(snap)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Name: name, ContentType: "text/html; charset=utf-8", Data: []byte(html)}, nil
	case FormatPDF:
		if s.pdf == nil {
			return nil, fmt.Errorf("pdf export is not available")
		}
		html, err := s.RenderHTML(snap)
		if err != nil {
			return nil, err
		}
		data, err := s.pdf.RenderPDF(ctx, html)
		if err != nil {
			log.Printf("❌ Export: pdf for %s failed: %v", snap.Reference, err)
			return nil, err
		}
		return &ExportFile{Name: name, ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", models.ErrValidation, format)
	}
}

// RenderCSV writes the sheet as comma separated values with a totals footer
func RenderCSV(snap ExportSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{exportHeader}
	for _, l := range snap.Lines {
		rows = append(rows, []string{
			l.Article, l.Color, l.Size,
			fmt.Sprintf("%d", l.Qty),
			l.UnitPrice.StringFixed(2),
			l.Total.StringFixed(2),
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"Cliente", snap.Customer},
		[]string{"Totale", snap.Totals.Gross.StringFixed(2)},
		[]string{"Sconto %", snap.Totals.DiscountPercent.String()},
		[]string{"Imponibile", snap.Totals.Net.StringFixed(2)},
	)

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderXLSX writes the sheet as an Excel workbook with one "Ordine" sheet
func RenderXLSX(snap ExportSnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Ordine"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := append(append([]string{}, exportHeader...), "Cliente", "Sconto")
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	discount := snap.Totals.DiscountPercent.InexactFloat64()
	for i, l := range snap.Lines {
		row := []any{
			l.Article, l.Color, l.Size, l.Qty,
			l.UnitPrice.InexactFloat64(), l.Total.InexactFloat64(),
			snap.Customer, discount,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	footer := len(snap.Lines) + 3
	summary := [][]any{
		{"Totale", snap.Totals.Gross.InexactFloat64()},
		{"Sconto", snap.Totals.Discount.InexactFloat64()},
		{"Imponibile", snap.Totals.Net.InexactFloat64()},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(5, footer+i)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write totals: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

var orderSheetTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"eur":  utils.FormatEUR,
	"date": func(t time.Time) string { return t.Format("02/01/2006") },
}).Parse(`<!DOCTYPE html>
<html lang="it">
<head>
<meta charset="utf-8">
<title>Ordine {{.Snap.Reference}}</title>
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 11pt; margin: 18mm; color: #111; }
  header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 10mm; }
  header img { max-height: 22mm; }
  table { width: 100%; border-collapse: collapse; }
  th, td { border-bottom: 1px solid #ccc; padding: 4px 6px; text-align: left; }
  td.num, th.num { text-align: right; }
  .totals { margin-top: 8mm; width: 45%; margin-left: auto; }
  .totals td { border: none; }
  .totals tr.net td { font-weight: bold; border-top: 2px solid #111; }
</style>
</head>
<body>
<header>
  {{if .Logo}}<img src="{{.Logo}}" alt="Mars3lo">{{else}}<h1>Mars3lo</h1>{{end}}
  <div>
    <div><strong>Cliente:</strong> {{.Snap.Customer}}</div>
    <div><strong>Data:</strong> {{date .Snap.Date}}</div>
    {{if .Snap.Status}}<div><strong>Stato:</strong> {{.Snap.Status}}</div>{{end}}
  </div>
</header>
<table>
  <thead>
    <tr><th>Articolo</th><th>Colore</th><th>Taglia</th><th class="num">Quantità</th><th class="num">Prezzo</th><th class="num">Totale</th></tr>
  </thead>
  <tbody>
  {{range .Snap.Lines}}
    <tr><td>{{.Article}}</td><td>{{.Color}}</td><td>{{.Size}}</td><td class="num">{{.Qty}}</td><td class="num">{{eur .UnitPrice}}</td><td class="num">{{eur .Total}}</td></tr>
  {{end}}
  </tbody>
</table>
<table class="totals">
  <tr><td>Totale</td><td class="num">{{eur .Snap.Totals.Gross}}</td></tr>
  <tr><td>Sconto {{.Snap.Totals.DiscountPercent}}%</td><td class="num">{{eur .Snap.Totals.Discount}}</td></tr>
  <tr class="net"><td>Imponibile</td><td class="num">{{eur .Snap.Totals.Net}}</td></tr>
</table>
</body>
</html>
`))

// RenderHTML renders the printable order sheet
func (s *ExportService) RenderHTML(snap ExportSnapshot) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Snap ExportSnapshot
		Logo template.URL
	}{Snap: snap, Logo: s.logo}

	if err := orderSheetTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render order sheet: %w", err)
	}
	return buf.String(), nil
}

func exportFileName(snap ExportSnapshot, format string) string {
	customer := strings.Join(strings.Fields(snap.Customer), "_")
	if customer == "" {
		customer = "ordine"
	}
	ref := snap.Reference
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return fmt.Sprintf("%s_%s_%s.%s", customer, ref, snap.Date.Format("20060102"), format)
}
