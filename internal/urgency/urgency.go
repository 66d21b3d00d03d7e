// Package urgency classifies debts by how close they are to their due date
// and computes the dashboard aggregates. Everything here is a pure function of
// its arguments: the reference date is passed in, never read from a clock.
package urgency

import (
	"math"
	"sort"

	"github.com/Dan9191/hutangku/internal/models"
	"github.com/shopspring/decimal"
)

// NoDueDate is the days-until-due value given to records whose due date is
// missing. It sorts after every real date and never counts as urgent.
const NoDueDate = math.MaxInt32

// DefaultWarningDays is the due-soon window used when none is configured
const DefaultWarningDays = 7

// DefaultSmallDebtThreshold is the magnitude below which company entries are
// collapsed into an "Other" bucket
var DefaultSmallDebtThreshold = decimal.NewFromInt(1)

// Bucket is a due-date proximity class
type Bucket string

const (
	BucketOverdue  Bucket = "Overdue"
	BucketDueToday Bucket = "Due Today"
	Bucket1To3     Bucket = "1-3 days"
	Bucket4To7     Bucket = "4-7 days"
	Bucket8To14    Bucket = "8-14 days"
	BucketLater    Bucket = ">14 days"
)

// Buckets lists every bucket from most to least urgent
var Buckets = []Bucket{BucketOverdue, BucketDueToday, Bucket1To3, Bucket4To7, Bucket8To14, BucketLater}

// DisplayStatus splits records three ways for grouping: active debts are
// divided into overdue and not overdue.
type DisplayStatus string

const (
	DisplayOverdue DisplayStatus = "Overdue"
	DisplayActive  DisplayStatus = "Active"
	DisplayPaidOff DisplayStatus = "Paid Off"
)

var displayOrder = map[DisplayStatus]int{DisplayOverdue: 0, DisplayActive: 1, DisplayPaidOff: 2}

// Options tunes classification
type Options struct {
	WarningDays        int
	SmallDebtThreshold decimal.Decimal
}

// DefaultOptions returns the 7-day window and the 1.00 small-debt threshold
func DefaultOptions() Options {
	return Options{WarningDays: DefaultWarningDays, SmallDebtThreshold: DefaultSmallDebtThreshold}
}

// ClassifiedDebt is an active debt annotated with its urgency
type ClassifiedDebt struct {
	models.Debt
	DaysUntilDue int    `json:"days_until_due"`
	IsOverdue    bool   `json:"is_overdue"`
	Bucket       Bucket `json:"urgency_bucket"`
}

// BucketCount is the number of active debts in one bucket
type BucketCount struct {
	Bucket Bucket `json:"bucket"`
	Count  int    `json:"count"`
}

// CompanyTotal sums the amounts owed to one company under one display status
type CompanyTotal struct {
	DisplayStatus DisplayStatus   `json:"display_status"`
	CompanyName   string          `json:"company_name"`
	Amount        decimal.Decimal `json:"amount"`
	Count         int             `json:"count"`
}

// OtherBucket carries the entries collapsed for being below the threshold
type OtherBucket struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// StatusBreakdown is the per-company view of one display status
type StatusBreakdown struct {
	DisplayStatus DisplayStatus   `json:"display_status"`
	Total         decimal.Decimal `json:"total"`
	Entries       []CompanyTotal  `json:"entries"`
	Other         *OtherBucket    `json:"other,omitempty"`
}

// CompanyGroup lists the active debts owed to one company
type CompanyGroup struct {
	CompanyName string           `json:"company_name"`
	Total       decimal.Decimal  `json:"total"`
	Plans       int              `json:"plans"`
	Debts       []ClassifiedDebt `json:"debts"`
}

// Totals holds the headline figures
type Totals struct {
	TotalOutstanding    decimal.Decimal `json:"total_outstanding"`
	TotalOverdue        decimal.Decimal `json:"total_overdue"`
	TotalMinimumPayment decimal.Decimal `json:"total_minimum_payment"`
	TotalPaidOff        decimal.Decimal `json:"total_paid_off"`
	ActiveCount         int             `json:"active_count"`
	DueSoonCount        int             `json:"due_soon_count"`
	OverdueCount        int             `json:"overdue_count"`
	PaidOffCount        int             `json:"paid_off_count"`
}

// Report is the full classification output
type Report struct {
	Today         models.Date       `json:"today"`
	WarningDays   int               `json:"warning_days"`
	Totals        Totals            `json:"totals"`
	BucketCounts  []BucketCount     `json:"bucket_counts"`
	Active        []ClassifiedDebt  `json:"active"`
	Overdue       []ClassifiedDebt  `json:"overdue"`
	DueSoon       []ClassifiedDebt  `json:"due_soon"`
	CompanyTotals []CompanyTotal    `json:"company_totals"`
	Breakdown     []StatusBreakdown `json:"breakdown"`
	CompanyGroups []CompanyGroup    `json:"company_groups"`
}

// DaysUntilDue returns due - today in calendar days, or NoDueDate when the
// due date is missing
func DaysUntilDue(due, today models.Date) int {
	if due.IsZero() || today.IsZero() {
		return NoDueDate
	}
	return due.DaysSince(today)
}

// BucketFor maps days-until-due to its bucket
func BucketFor(days int) Bucket {
	switch {
	case days < 0:
		return BucketOverdue
	case days == 0:
		return BucketDueToday
	case days <= 3:
		return Bucket1To3
	case days <= 7:
		return Bucket4To7
	case days <= 14:
		return Bucket8To14
	}
	return BucketLater
}

// ClassifyDebt annotates a single debt relative to today
func ClassifyDebt(d models.Debt, today models.Date) ClassifiedDebt {
	days := DaysUntilDue(d.DueDate, today)
	return ClassifiedDebt{
		Debt:         d,
		DaysUntilDue: days,
		IsOverdue:    days < 0,
		Bucket:       BucketFor(days),
	}
}

// IsDueSoon reports whether days falls inside the warning window
func IsDueSoon(days, warningDays int) bool {
	return days >= 0 && days <= warningDays
}

// Classify runs the whole engine over a snapshot of debts. The input slice is
// not modified.
func Classify(debts []models.Debt, today models.Date, opts Options) *Report {
	report := &Report{
		Today:         today,
		WarningDays:   opts.WarningDays,
		Active:        make([]ClassifiedDebt, 0),
		Overdue:       make([]ClassifiedDebt, 0),
		DueSoon:       make([]ClassifiedDebt, 0),
		CompanyTotals: make([]CompanyTotal, 0),
		CompanyGroups: make([]CompanyGroup, 0),
	}
	totals := Totals{
		TotalOutstanding:    decimal.Zero,
		TotalOverdue:        decimal.Zero,
		TotalMinimumPayment: decimal.Zero,
		TotalPaidOff:        decimal.Zero,
	}
	bucketCounts := make(map[Bucket]int, len(Buckets))
	var paid []models.Debt

	for _, d := range debts {
		if d.Status == models.StatusPaidOff {
			totals.PaidOffCount++
			totals.TotalPaidOff = totals.TotalPaidOff.Add(d.AmountOwed)
			paid = append(paid, d)
			continue
		}
		c := ClassifyDebt(d, today)
		report.Active = append(report.Active, c)
		bucketCounts[c.Bucket]++
		totals.ActiveCount++
		totals.TotalOutstanding = totals.TotalOutstanding.Add(d.AmountOwed)
		totals.TotalMinimumPayment = totals.TotalMinimumPayment.Add(d.MinimumPayment)
		if c.IsOverdue {
			totals.OverdueCount++
			totals.TotalOverdue = totals.TotalOverdue.Add(d.AmountOwed)
			report.Overdue = append(report.Overdue, c)
		} else if IsDueSoon(c.DaysUntilDue, opts.WarningDays) {
			totals.DueSoonCount++
			report.DueSoon = append(report.DueSoon, c)
		}
	}

	sortByUrgency(report.Active)
	sortByUrgency(report.Overdue)
	sortByUrgency(report.DueSoon)

	report.Totals = totals
	for _, b := range Buckets {
		report.BucketCounts = append(report.BucketCounts, BucketCount{Bucket: b, Count: bucketCounts[b]})
	}
	report.CompanyTotals = TotalsByCompany(report.Active, paid)
	report.Breakdown = Collapse(report.CompanyTotals, opts.SmallDebtThreshold)
	report.CompanyGroups = GroupActiveByCompany(report.Active)
	return report
}

// TotalsByCompany sums amounts per (display status, company). Records with a
// non-positive amount are left out.
func TotalsByCompany(active []ClassifiedDebt, paid []models.Debt) []CompanyTotal {
	type key struct {
		status  DisplayStatus
		company string
	}
	sums := make(map[key]*CompanyTotal)
	add := func(status DisplayStatus, d models.Debt) {
		if d.AmountOwed.Sign() <= 0 {
			return
		}
		k := key{status, d.CompanyName}
		t, ok := sums[k]
		if !ok {
			t = &CompanyTotal{DisplayStatus: status, CompanyName: d.CompanyName, Amount: decimal.Zero}
			sums[k] = t
		}
		t.Amount = t.Amount.Add(d.AmountOwed)
		t.Count++
	}
	for _, c := range active {
		status := DisplayActive
		if c.IsOverdue {
			status = DisplayOverdue
		}
		add(status, c.Debt)
	}
	for _, d := range paid {
		add(DisplayPaidOff, d)
	}

	out := make([]CompanyTotal, 0, len(sums))
	for _, t := range sums {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayStatus != out[j].DisplayStatus {
			return displayOrder[out[i].DisplayStatus] < displayOrder[out[j].DisplayStatus]
		}
		return out[i].CompanyName < out[j].CompanyName
	})
	return out
}

// Collapse splits company totals by display status and folds entries below
// threshold into a single Other bucket per status. A non-positive threshold
// disables folding. Input must be ordered as TotalsByCompany returns it.
func Collapse(totals []CompanyTotal, threshold decimal.Decimal) []StatusBreakdown {
	out := make([]StatusBreakdown, 0, len(displayOrder))
	idx := make(map[DisplayStatus]int)
	for _, t := range totals {
		i, ok := idx[t.DisplayStatus]
		if !ok {
			out = append(out, StatusBreakdown{
				DisplayStatus: t.DisplayStatus,
				Total:         decimal.Zero,
				Entries:       make([]CompanyTotal, 0),
			})
			i = len(out) - 1
			idx[t.DisplayStatus] = i
		}
		b := &out[i]
		b.Total = b.Total.Add(t.Amount)
		if threshold.Sign() > 0 && t.Amount.LessThan(threshold) {
			if b.Other == nil {
				b.Other = &OtherBucket{Amount: decimal.Zero}
			}
			b.Other.Count++
			b.Other.Amount = b.Other.Amount.Add(t.Amount)
			continue
		}
		b.Entries = append(b.Entries, t)
	}
	return out
}

// GroupActiveByCompany groups classified debts by company, alphabetically.
// Each group keeps its debts in urgency order.
func GroupActiveByCompany(active []ClassifiedDebt) []CompanyGroup {
	idx := make(map[string]int)
	groups := make([]CompanyGroup, 0)
	for _, c := range active {
		i, ok := idx[c.CompanyName]
		if !ok {
			groups = append(groups, CompanyGroup{CompanyName: c.CompanyName, Total: decimal.Zero})
			i = len(groups) - 1
			idx[c.CompanyName] = i
		}
		g := &groups[i]
		g.Total = g.Total.Add(c.AmountOwed)
		g.Plans++
		g.Debts = append(g.Debts, c)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CompanyName < groups[j].CompanyName
	})
	for i := range groups {
		sortByUrgency(groups[i].Debts)
	}
	return groups
}

// sortByUrgency orders by days-until-due, then company and id so equal
// dates come out the same way on every run
func sortByUrgency(list []ClassifiedDebt) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.DaysUntilDue != b.DaysUntilDue {
			return a.DaysUntilDue < b.DaysUntilDue
		}
		if a.CompanyName != b.CompanyName {
			return a.CompanyName < b.CompanyName
		}
		return a.ID < b.ID
	})
}
