// Package export writes debt records as CSV or XML documents.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/Dan9191/hutangku/internal/models"
	"github.com/beevik/etree"
	"github.com/gocarina/gocsv"
)

// Format is an export file format
type Format string

const (
	FormatCSV Format = "csv"
	FormatXML Format = "xml"
)

// ParseFormat accepts "csv" or "xml", case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xml":
		return FormatXML, nil
	}
	return "", fmt.Errorf("unsupported export format %q, expected csv or xml", s)
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	if f == FormatXML {
		return "application/xml"
	}
	return "text/csv"
}

// Write dispatches to WriteCSV or WriteXML
func Write(w io.Writer, format Format, debts []models.Debt) error {
	switch format {
	case FormatXML:
		return WriteXML(w, debts)
	case FormatCSV:
		return WriteCSV(w, debts)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

type debtRow struct {
	ID             string `csv:"id"`
	CompanyName    string `csv:"company_name"`
	AmountOwed     string `csv:"amount_owed"`
	MinimumPayment string `csv:"minimum_payment"`
	DueDate        string `csv:"due_date"`
	Status         string `csv:"status"`
	Notes          string `csv:"notes"`
}

func toRow(d models.Debt) debtRow {
	return debtRow{
		ID:             d.ID,
		CompanyName:    d.CompanyName,
		AmountOwed:     d.AmountOwed.StringFixed(2),
		MinimumPayment: d.MinimumPayment.StringFixed(2),
		DueDate:        d.DueDate.String(),
		Status:         d.Status.String(),
		Notes:          d.Notes,
	}
}

// WriteCSV writes a header row and one row per debt
func WriteCSV(w io.Writer, debts []models.Debt) error {
	rows := make([]debtRow, 0, len(debts))
	for _, d := range debts {
		rows = append(rows, toRow(d))
	}
	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	if err := gocsv.MarshalCSV(rows, writer); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteXML writes a <debts> document with one <debt> element per record
func WriteXML(w io.Writer, debts []models.Debt) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("debts")
	root.CreateAttr("count", fmt.Sprintf("%d", len(debts)))

	for _, d := range debts {
		row := toRow(d)
		el := root.CreateElement("debt")
		el.CreateAttr("id", row.ID)
		el.CreateAttr("status", row.Status)
		el.CreateElement("company_name").SetText(row.CompanyName)
		el.CreateElement("amount_owed").SetText(row.AmountOwed)
		el.CreateElement("minimum_payment").SetText(row.MinimumPayment)
		el.CreateElement("due_date").SetText(row.DueDate)
		if row.Notes != "" {
			el.CreateElement("notes").SetText(row.Notes)
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("error writing XML data: %w", err)
	}
	return nil
}
