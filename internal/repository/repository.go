package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dan9191/hutangku/internal/apperr"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/lib/pq"
)

// Store abstracts persistence of debt and company records
type Store interface {
	CreateDebt(ctx context.Context, debt *models.Debt) error
	GetDebt(ctx context.Context, id string) (*models.Debt, error)
	ListDebts(ctx context.Context, status *models.DebtStatus) ([]models.Debt, error)
	UpdateDebt(ctx context.Context, id string, patch models.DebtPatch) (*models.Debt, error)
	DeleteDebt(ctx context.Context, id string) (bool, error)

	ListCompanies(ctx context.Context) ([]models.Company, error)
	AddCompany(ctx context.Context, name string) (*models.Company, error)
	DeleteCompany(ctx context.Context, id string) (bool, error)
	FindCompanyByName(ctx context.Context, name string) (*models.Company, error)

	Ping(ctx context.Context) error
	Close() error
}

//go:embed schema.sql
var schema string

const debtColumns = "id, company_name, amount_owed, minimum_payment, due_date, status, notes"

// Repository provides PostgreSQL-backed storage
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the schema if it does not exist yet
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return apperr.Unavailable("migrate", err)
	}
	return nil
}

// Ping checks the connection
func (r *Repository) Ping(ctx context.Context) error {
	return apperr.Unavailable("ping", r.db.PingContext(ctx))
}

// Close releases the connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDebt(row rowScanner) (*models.Debt, error) {
	var (
		d  models.Debt
		id int64
	)
	if err := row.Scan(&id, &d.CompanyName, &d.AmountOwed, &d.MinimumPayment, &d.DueDate, &d.Status, &d.Notes); err != nil {
		return nil, err
	}
	d.ID = strconv.FormatInt(id, 10)
	return &d, nil
}

// parseID converts a path id into the serial key. Anything that is not a
// positive integer cannot exist in the table.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// translate maps driver errors onto the application taxonomy
func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23514", "23502", "22P02":
			field := pqErr.Column
			if field == "" {
				field = pqErr.Constraint
			}
			return apperr.Invalid(field, "rejected by store: %s", pqErr.Message)
		}
	}
	return apperr.Unavailable(op, err)
}

// CreateDebt inserts a debt and fills in its id
func (r *Repository) CreateDebt(ctx context.Context, debt *models.Debt) error {
	query := `
		INSERT INTO hutang.debts (company_name, amount_owed, minimum_payment, due_date, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		debt.CompanyName, debt.AmountOwed, debt.MinimumPayment, debt.DueDate, debt.Status, debt.Notes).
		Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to create debt: %w", translate("create debt", err))
	}
	debt.ID = strconv.FormatInt(id, 10)
	return nil
}

// GetDebt retrieves a debt by id
func (r *Repository) GetDebt(ctx context.Context, id string) (*models.Debt, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, apperr.NotFound("debt", id)
	}
	query := `SELECT ` + debtColumns + ` FROM hutang.debts WHERE id = $1`
	debt, err := scanDebt(r.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("debt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debt: %w", translate("get debt", err))
	}
	return debt, nil
}

// ListDebts retrieves all debts, optionally only those with the given status
func (r *Repository) ListDebts(ctx context.Context, status *models.DebtStatus) ([]models.Debt, error) {
	query := `SELECT ` + debtColumns + ` FROM hutang.debts`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", translate("list debts", err))
	}
	defer rows.Close()

	debts := make([]models.Debt, 0)
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", translate("list debts", err))
		}
		debts = append(debts, *debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", translate("list debts", err))
	}
	return debts, nil
}

// UpdateDebt applies the set fields of patch in a single UPDATE ... RETURNING
func (r *Repository) UpdateDebt(ctx context.Context, id string, patch models.DebtPatch) (*models.Debt, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, apperr.NotFound("debt", id)
	}
	if patch.IsEmpty() {
		return r.GetDebt(ctx, id)
	}

	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.CompanyName != nil {
		set("company_name", *patch.CompanyName)
	}
	if patch.AmountOwed != nil {
		set("amount_owed", *patch.AmountOwed)
	}
	if patch.MinimumPayment != nil {
		set("minimum_payment", *patch.MinimumPayment)
	}
	if patch.DueDate != nil {
		set("due_date", *patch.DueDate)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	args = append(args, key)

	query := fmt.Sprintf(`
		UPDATE hutang.debts
		SET %s, updated_at = CURRENT_TIMESTAMP
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), debtColumns)
	debt, err := scanDebt(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("debt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update debt: %w", translate("update debt", err))
	}
	return debt, nil
}

// DeleteDebt removes a debt permanently
func (r *Repository) DeleteDebt(ctx context.Context, id string) (bool, error) {
	key, ok := parseID(id)
	if !ok {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM hutang.debts WHERE id = $1`, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete debt: %w", translate("delete debt", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete debt: %w", translate("delete debt", err))
	}
	return n > 0, nil
}

// ListCompanies returns all stored companies ordered by name
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM hutang.companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", translate("list companies", err))
	}
	defer rows.Close()

	companies := make([]models.Company, 0)
	for rows.Next() {
		var (
			c  models.Company
			id int64
		)
		if err := rows.Scan(&id, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", translate("list companies", err))
		}
		c.ID = strconv.FormatInt(id, 10)
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", translate("list companies", err))
	}
	return companies, nil
}

// AddCompany inserts a company, returning the existing row if the name is taken
func (r *Repository) AddCompany(ctx context.Context, name string) (*models.Company, error) {
	query := `
		INSERT INTO hutang.companies (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query, name).Scan(&id)
	if err == sql.ErrNoRows {
		return r.FindCompanyByName(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add company: %w", translate("add company", err))
	}
	return &models.Company{ID: strconv.FormatInt(id, 10), Name: name}, nil
}

// DeleteCompany removes a company
func (r *Repository) DeleteCompany(ctx context.Context, id string) (bool, error) {
	key, ok := parseID(id)
	if !ok {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM hutang.companies WHERE id = $1`, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete company: %w", translate("delete company", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete company: %w", translate("delete company", err))
	}
	return n > 0, nil
}

// FindCompanyByName retrieves a company by exact, case-sensitive name
func (r *Repository) FindCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	var (
		c  models.Company
		id int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM hutang.companies WHERE name = $1`, name).
		Scan(&id, &c.Name)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("company", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company: %w", translate("find company", err))
	}
	c.ID = strconv.FormatInt(id, 10)
	return &c, nil
}
