package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// DebtStatus is the lifecycle state of a debt record
type DebtStatus uint8

const (
	StatusActive DebtStatus = iota
	StatusPaidOff
)

const (
	statusActiveText  = "Active Debt"
	statusPaidOffText = "Paid Off"
)

// ParseStatus converts the wire literal into a DebtStatus
func ParseStatus(s string) (DebtStatus, error) {
	switch s {
	case statusActiveText:
		return StatusActive, nil
	case statusPaidOffText:
		return StatusPaidOff, nil
	}
	return 0, fmt.Errorf("invalid status %q, expected %q or %q", s, statusActiveText, statusPaidOffText)
}

func (s DebtStatus) String() string {
	switch s {
	case StatusActive:
		return statusActiveText
	case StatusPaidOff:
		return statusPaidOffText
	}
	return fmt.Sprintf("DebtStatus(%d)", uint8(s))
}

// Valid reports whether s is one of the known statuses
func (s DebtStatus) Valid() bool {
	return s == StatusActive || s == StatusPaidOff
}

func (s DebtStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *DebtStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Scan implements sql.Scanner for the TEXT status column
func (s *DebtStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	}
	return fmt.Errorf("cannot scan %T into DebtStatus", src)
}

// Value implements driver.Valuer
func (s DebtStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return s.String(), nil
}

// Debt represents a single debt obligation
type Debt struct {
	ID             string          `json:"id"`
	CompanyName    string          `json:"company_name"`
	AmountOwed     decimal.Decimal `json:"amount_owed"`
	MinimumPayment decimal.Decimal `json:"minimum_payment"`
	DueDate        Date            `json:"due_date"`
	Status         DebtStatus      `json:"status"`
	Notes          string          `json:"notes"`
}

// DebtPatch carries a partial update. Nil fields are left unchanged.
type DebtPatch struct {
	CompanyName    *string          `json:"company_name,omitempty"`
	AmountOwed     *decimal.Decimal `json:"amount_owed,omitempty"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment,omitempty"`
	DueDate        *Date            `json:"due_date,omitempty"`
	Status         *DebtStatus      `json:"status,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch sets no field
func (p DebtPatch) IsEmpty() bool {
	return p.CompanyName == nil && p.AmountOwed == nil && p.MinimumPayment == nil &&
		p.DueDate == nil && p.Status == nil && p.Notes == nil
}

// Apply copies the set fields of the patch onto d
func (p DebtPatch) Apply(d *Debt) {
	if p.CompanyName != nil {
		d.CompanyName = *p.CompanyName
	}
	if p.AmountOwed != nil {
		d.AmountOwed = *p.AmountOwed
	}
	if p.MinimumPayment != nil {
		d.MinimumPayment = *p.MinimumPayment
	}
	if p.DueDate != nil {
		d.DueDate = *p.DueDate
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}
}

// Company is a previously used creditor name
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeleteResponse is returned by delete operations
type DeleteResponse struct {
	Message   string `json:"message"`
	DeletedID string `json:"deleted_id,omitempty"`
}
