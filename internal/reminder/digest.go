package reminder

import (
	"fmt"

	"github.com/Dan9191/hutangku/internal/models"
	"github.com/Dan9191/hutangku/internal/urgency"
)

// Currency is the symbol printed in front of amounts
const Currency = "RM"

// Digest lists the debts that need attention on a given day
type Digest struct {
	Date        models.Date
	WarningDays int
	Overdue     []urgency.ClassifiedDebt
	DueSoon     []urgency.ClassifiedDebt
}

// BuildDigest extracts the overdue and due-soon lists from a report
func BuildDigest(report *urgency.Report) Digest {
	return Digest{
		Date:        report.Today,
		WarningDays: report.WarningDays,
		Overdue:     report.Overdue,
		DueSoon:     report.DueSoon,
	}
}

// Empty reports whether nothing is overdue or due soon
func (d Digest) Empty() bool {
	return len(d.Overdue) == 0 && len(d.DueSoon) == 0
}

// Subject summarises the digest in one line
func (d Digest) Subject() string {
	switch {
	case len(d.Overdue) > 0 && len(d.DueSoon) > 0:
		return fmt.Sprintf("%d overdue and %d upcoming debt payments", len(d.Overdue), len(d.DueSoon))
	case len(d.Overdue) > 0:
		return fmt.Sprintf("%d overdue debt payment%s", len(d.Overdue), plural(len(d.Overdue)))
	case len(d.DueSoon) > 0:
		return fmt.Sprintf("%d debt payment%s due within %d days", len(d.DueSoon), plural(len(d.DueSoon)), d.WarningDays)
	}
	return "No debt payments need attention"
}

// Lines renders one sentence per debt, overdue first
func (d Digest) Lines() []string {
	lines := make([]string, 0, len(d.Overdue)+len(d.DueSoon))
	for _, c := range d.Overdue {
		days := -c.DaysUntilDue
		lines = append(lines, fmt.Sprintf("%s - %d day%s OVERDUE! Amount: %s%s",
			c.CompanyName, days, plural(days), Currency, c.MinimumPayment.StringFixed(2)))
	}
	for _, c := range d.DueSoon {
		var when string
		switch c.DaysUntilDue {
		case 0:
			when = "Payment DUE TODAY!"
		case 1:
			when = "Payment due TOMORROW!"
		default:
			when = fmt.Sprintf("Payment due in %d days!", c.DaysUntilDue)
		}
		lines = append(lines, fmt.Sprintf("%s - %s Amount: %s%s",
			c.CompanyName, when, Currency, c.MinimumPayment.StringFixed(2)))
	}
	return lines
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
