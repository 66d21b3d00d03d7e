package service

import (
	"strings"

	"github.com/Dan9191/hutangku/internal/apperr"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/shopspring/decimal"
)

// ValidateDebt checks a full record before it is created. Fields are stored
// exactly as given.
func ValidateDebt(d *models.Debt) error {
	if strings.TrimSpace(d.CompanyName) == "" {
		return apperr.Invalid("company_name", "must not be empty")
	}
	if err := positive("amount_owed", d.AmountOwed); err != nil {
		return err
	}
	if err := positive("minimum_payment", d.MinimumPayment); err != nil {
		return err
	}
	if d.DueDate.IsZero() {
		return apperr.Invalid("due_date", "is required (YYYY-MM-DD)")
	}
	if !d.Status.Valid() {
		return apperr.Invalid("status", "must be %q or %q", models.StatusActive, models.StatusPaidOff)
	}
	return nil
}

// ValidatePatch checks every field a partial update sets. All record
// invariants are per-field, so a valid patch applied to a valid record always
// yields a valid record.
func ValidatePatch(p *models.DebtPatch) error {
	if p.CompanyName != nil && strings.TrimSpace(*p.CompanyName) == "" {
		return apperr.Invalid("company_name", "must not be empty")
	}
	if p.AmountOwed != nil {
		if err := positive("amount_owed", *p.AmountOwed); err != nil {
			return err
		}
	}
	if p.MinimumPayment != nil {
		if err := positive("minimum_payment", *p.MinimumPayment); err != nil {
			return err
		}
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return apperr.Invalid("due_date", "cannot be cleared")
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Invalid("status", "must be %q or %q", models.StatusActive, models.StatusPaidOff)
	}
	return nil
}

// ValidateCompanyName trims and checks a company name
func ValidateCompanyName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("name", "must not be empty")
	}
	return name, nil
}

func positive(field string, v decimal.Decimal) error {
	if v.Sign() <= 0 {
		return apperr.Invalid(field, "must be greater than 0, got %s", v.String())
	}
	return nil
}
