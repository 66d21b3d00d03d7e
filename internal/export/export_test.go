package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/Dan9191/hutangku/internal/models"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDebts() []models.Debt {
	return []models.Debt{
		{
			ID:             "1",
			CompanyName:    "Atome",
			AmountOwed:     decimal.RequireFromString("150"),
			MinimumPayment: decimal.RequireFromString("50.5"),
			DueDate:        models.NewDate(2025, time.March, 13),
			Status:         models.StatusActive,
			Notes:          "instalment 1, of 3",
		},
		{
			ID:             "2",
			CompanyName:    "Shopee PayLater",
			AmountOwed:     decimal.RequireFromString("80"),
			MinimumPayment: decimal.RequireFromString("20"),
			DueDate:        models.NewDate(2025, time.March, 8),
			Status:         models.StatusPaidOff,
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("XML")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, f)
	assert.Equal(t, "application/xml", f.ContentType())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDebts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "company_name", "amount_owed", "minimum_payment", "due_date", "status", "notes"}, records[0])
	assert.Equal(t, []string{"1", "Atome", "150.00", "50.50", "2025-03-13", "Active Debt", "instalment 1, of 3"}, records[1])
	assert.Equal(t, "Paid Off", records[2][5])
}

func TestWriteXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXML, sampleDebts()))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))
	root := doc.SelectElement("debts")
	require.NotNil(t, root)
	assert.Equal(t, "2", root.SelectAttrValue("count", ""))

	debts := root.SelectElements("debt")
	require.Len(t, debts, 2)
	assert.Equal(t, "1", debts[0].SelectAttrValue("id", ""))
	assert.Equal(t, "Atome", debts[0].SelectElement("company_name").Text())
	assert.Equal(t, "150.00", debts[0].SelectElement("amount_owed").Text())
	assert.Nil(t, debts[1].SelectElement("notes"))
	assert.Equal(t, "Paid Off", debts[1].SelectAttrValue("status", ""))
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
}
