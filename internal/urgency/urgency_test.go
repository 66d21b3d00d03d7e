package urgency

import (
	"testing"
	"time"

	"github.com/Dan9191/hutangku/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = models.NewDate(2025, time.March, 10)

func debt(id, company string, amount float64, dueOffset int, status models.DebtStatus) models.Debt {
	return models.Debt{
		ID:             id,
		CompanyName:    company,
		AmountOwed:     decimal.NewFromFloat(amount),
		MinimumPayment: decimal.NewFromFloat(amount / 10),
		DueDate:        today.AddDays(dueOffset),
		Status:         status,
	}
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		days int
		want Bucket
	}{
		{-30, BucketOverdue},
		{-1, BucketOverdue},
		{0, BucketDueToday},
		{1, Bucket1To3},
		{3, Bucket1To3},
		{4, Bucket4To7},
		{7, Bucket4To7},
		{8, Bucket8To14},
		{14, Bucket8To14},
		{15, BucketLater},
		{NoDueDate, BucketLater},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.days), "days=%d", tt.days)
	}
}

func TestClassifyDebt_DueToday(t *testing.T) {
	c := ClassifyDebt(debt("1", "Atome", 10, 0, models.StatusActive), today)

	assert.Equal(t, 0, c.DaysUntilDue)
	assert.False(t, c.IsOverdue)
	assert.Equal(t, BucketDueToday, c.Bucket)
}

func TestClassifyDebt_FiveDaysOverdue(t *testing.T) {
	c := ClassifyDebt(debt("1", "Atome", 10, -5, models.StatusActive), today)

	assert.Equal(t, -5, c.DaysUntilDue)
	assert.True(t, c.IsOverdue)
	assert.Equal(t, BucketOverdue, c.Bucket)
}

func TestClassifyDebt_TypoYearIsOverdue(t *testing.T) {
	d := debt("1", "Atome", 10, 0, models.StatusActive)
	due, err := models.ParseDate("0202-03-01")
	require.NoError(t, err)
	d.DueDate = due

	c := ClassifyDebt(d, today)
	assert.Equal(t, -665847, c.DaysUntilDue)
	assert.True(t, c.IsOverdue)
	assert.Equal(t, BucketOverdue, c.Bucket)

	far, err := models.ParseDate("2525-03-10")
	require.NoError(t, err)
	d.DueDate = far
	assert.Equal(t, 182621, ClassifyDebt(d, today).DaysUntilDue)
}

func TestClassifyDebt_MissingDueDate(t *testing.T) {
	d := debt("1", "Atome", 10, 0, models.StatusActive)
	d.DueDate = models.Date{}

	c := ClassifyDebt(d, today)
	assert.Equal(t, NoDueDate, c.DaysUntilDue)
	assert.False(t, c.IsOverdue)
	assert.Equal(t, BucketLater, c.Bucket)
}

func TestClassify_Scenario(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Atome", 150.00, 3, models.StatusActive),
		debt("b", "Shopee", 80.00, -2, models.StatusActive),
	}

	r := Classify(debts, today, DefaultOptions())

	assert.Equal(t, 1, r.Totals.OverdueCount)
	assert.Equal(t, "80.00", r.Totals.TotalOverdue.StringFixed(2))
	assert.Equal(t, 1, r.Totals.DueSoonCount)
	assert.Equal(t, "230.00", r.Totals.TotalOutstanding.StringFixed(2))
	require.Len(t, r.DueSoon, 1)
	assert.Equal(t, "a", r.DueSoon[0].ID)
	require.Len(t, r.Overdue, 1)
	assert.Equal(t, "b", r.Overdue[0].ID)
}

func TestClassify_PaidOffDoesNotChangeOutstanding(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Atome", 150, 3, models.StatusActive),
		debt("b", "Shopee", 80, -2, models.StatusActive),
	}
	before := Classify(debts, today, DefaultOptions())

	withPaid := append(append([]models.Debt{}, debts...), debt("c", "Grab PayLater", 99999, -40, models.StatusPaidOff))
	after := Classify(withPaid, today, DefaultOptions())

	assert.True(t, before.Totals.TotalOutstanding.Equal(after.Totals.TotalOutstanding))
	assert.Equal(t, before.Totals.OverdueCount, after.Totals.OverdueCount)
	assert.Equal(t, 1, after.Totals.PaidOffCount)
	assert.Equal(t, "99999.00", after.Totals.TotalPaidOff.StringFixed(2))
}

func TestClassify_OverduePlusNotOverdueEqualsActive(t *testing.T) {
	var debts []models.Debt
	for i, off := range []int{-10, -1, 0, 2, 5, 9, 30, -3} {
		debts = append(debts, debt(string(rune('a'+i)), "Pace", float64(10+i), off, models.StatusActive))
	}
	debts = append(debts, debt("z", "Pace", 5, -1, models.StatusPaidOff))

	r := Classify(debts, today, DefaultOptions())

	notOverdue := 0
	for _, c := range r.Active {
		if !c.IsOverdue {
			notOverdue++
		}
	}
	assert.Equal(t, r.Totals.ActiveCount, r.Totals.OverdueCount+notOverdue)
	assert.Equal(t, 8, r.Totals.ActiveCount)
	assert.Equal(t, 3, r.Totals.OverdueCount)
}

func TestClassify_SortingLaws(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Atome", 10, -1, models.StatusActive),
		debt("b", "Rely", 10, -9, models.StatusActive),
		debt("c", "Pace", 10, -4, models.StatusActive),
		debt("d", "Hoolah", 10, 6, models.StatusActive),
		debt("e", "Maybank", 10, 0, models.StatusActive),
		debt("f", "CIMB", 10, 2, models.StatusActive),
	}

	r := Classify(debts, today, DefaultOptions())

	require.Len(t, r.Overdue, 3)
	for i := 1; i < len(r.Overdue); i++ {
		assert.LessOrEqual(t, r.Overdue[i-1].DaysUntilDue, r.Overdue[i].DaysUntilDue)
	}
	assert.Equal(t, "b", r.Overdue[0].ID)

	require.Len(t, r.DueSoon, 3)
	assert.Equal(t, []string{"e", "f", "d"}, []string{r.DueSoon[0].ID, r.DueSoon[1].ID, r.DueSoon[2].ID})
}

func TestClassify_MissingDueDateSortsLast(t *testing.T) {
	missing := debt("m", "Atome", 10, 0, models.StatusActive)
	missing.DueDate = models.Date{}
	debts := []models.Debt{missing, debt("a", "Atome", 10, 60, models.StatusActive)}

	r := Classify(debts, today, DefaultOptions())

	require.Len(t, r.Active, 2)
	assert.Equal(t, "m", r.Active[1].ID)
	assert.Empty(t, r.Overdue)
	assert.Empty(t, r.DueSoon)
}

func TestClassify_WarningWindowIsConfigurable(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Atome", 10, 3, models.StatusActive),
		debt("b", "Atome", 10, 10, models.StatusActive),
	}

	narrow := Classify(debts, today, Options{WarningDays: 2})
	wide := Classify(debts, today, Options{WarningDays: 10})

	assert.Equal(t, 0, narrow.Totals.DueSoonCount)
	assert.Equal(t, 2, wide.Totals.DueSoonCount)
	assert.Equal(t, 10, wide.WarningDays)
}

func TestClassify_Idempotent(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Atome", 150, 3, models.StatusActive),
		debt("b", "Shopee", 80, -2, models.StatusActive),
		debt("c", "Atome", 0.5, 20, models.StatusActive),
		debt("d", "Rely", 40, 1, models.StatusPaidOff),
	}
	snapshot := append([]models.Debt{}, debts...)

	first := Classify(debts, today, DefaultOptions())
	second := Classify(debts, today, DefaultOptions())

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, debts)
}

func TestClassify_Empty(t *testing.T) {
	r := Classify(nil, today, DefaultOptions())

	assert.True(t, r.Totals.TotalOutstanding.IsZero())
	assert.NotNil(t, r.Active)
	assert.NotNil(t, r.Overdue)
	assert.Empty(t, r.CompanyTotals)
	assert.Len(t, r.BucketCounts, len(Buckets))
}

func TestClassify_BucketCounts(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Atome", 10, -1, models.StatusActive),
		debt("b", "Atome", 10, 0, models.StatusActive),
		debt("c", "Atome", 10, 5, models.StatusActive),
		debt("d", "Atome", 10, 5, models.StatusActive),
		debt("e", "Atome", 10, 100, models.StatusActive),
	}

	r := Classify(debts, today, DefaultOptions())

	counts := make(map[Bucket]int)
	for _, bc := range r.BucketCounts {
		counts[bc.Bucket] = bc.Count
	}
	assert.Equal(t, 1, counts[BucketOverdue])
	assert.Equal(t, 1, counts[BucketDueToday])
	assert.Equal(t, 0, counts[Bucket1To3])
	assert.Equal(t, 2, counts[Bucket4To7])
	assert.Equal(t, 1, counts[BucketLater])
}

func TestTotalsByCompany(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Shopee", 50, 3, models.StatusActive),
		debt("b", "Shopee", 25, 9, models.StatusActive),
		debt("c", "Shopee", 80, -2, models.StatusActive),
		debt("d", "Atome", 20, -1, models.StatusActive),
		debt("e", "Atome", 70, 1, models.StatusPaidOff),
		debt("f", "Rely", 0, 1, models.StatusActive),
	}

	r := Classify(debts, today, DefaultOptions())

	require.Len(t, r.CompanyTotals, 4)
	got := make([]string, 0, len(r.CompanyTotals))
	for _, ct := range r.CompanyTotals {
		got = append(got, string(ct.DisplayStatus)+"/"+ct.CompanyName+"/"+ct.Amount.StringFixed(2))
	}
	assert.Equal(t, []string{
		"Overdue/Atome/20.00",
		"Overdue/Shopee/80.00",
		"Active/Shopee/75.00",
		"Paid Off/Atome/70.00",
	}, got)
	// Rely has a zero amount: left out of grouping but still counted as active
	assert.Equal(t, 5, r.Totals.ActiveCount)
}

func TestCollapse_SmallDebtsIntoOther(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Atome", 0.50, 20, models.StatusActive),
		debt("b", "Maybank", 500, 20, models.StatusActive),
	}

	r := Classify(debts, today, DefaultOptions())

	require.Len(t, r.Breakdown, 1)
	active := r.Breakdown[0]
	assert.Equal(t, DisplayActive, active.DisplayStatus)
	require.Len(t, active.Entries, 1)
	assert.Equal(t, "Maybank", active.Entries[0].CompanyName)
	require.NotNil(t, active.Other)
	assert.Equal(t, 1, active.Other.Count)
	assert.Equal(t, "0.50", active.Other.Amount.StringFixed(2))
	assert.Equal(t, "500.50", active.Total.StringFixed(2))
}

func TestCollapse_ZeroThresholdDisables(t *testing.T) {
	totals := []CompanyTotal{
		{DisplayStatus: DisplayActive, CompanyName: "Atome", Amount: decimal.NewFromFloat(0.5), Count: 1},
	}

	out := Collapse(totals, decimal.Zero)

	require.Len(t, out, 1)
	assert.Nil(t, out[0].Other)
	assert.Len(t, out[0].Entries, 1)
}

func TestGroupActiveByCompany(t *testing.T) {
	debts := []models.Debt{
		debt("a", "Shopee", 50, 9, models.StatusActive),
		debt("b", "Atome", 25, 2, models.StatusActive),
		debt("c", "Shopee", 80, -2, models.StatusActive),
		debt("d", "CIMB", 70, 1, models.StatusPaidOff),
	}

	r := Classify(debts, today, DefaultOptions())

	require.Len(t, r.CompanyGroups, 2)
	assert.Equal(t, "Atome", r.CompanyGroups[0].CompanyName)
	shopee := r.CompanyGroups[1]
	assert.Equal(t, "Shopee", shopee.CompanyName)
	assert.Equal(t, 2, shopee.Plans)
	assert.Equal(t, "130.00", shopee.Total.StringFixed(2))
	assert.Equal(t, "c", shopee.Debts[0].ID)
}
