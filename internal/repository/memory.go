package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Dan9191/hutangku/internal/apperr"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps records in process memory. Nothing survives a restart.
type MemoryRepository struct {
	mu        sync.RWMutex
	debts     map[string]models.Debt
	order     []string
	companies map[string]models.Company
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		debts:     make(map[string]models.Debt),
		companies: make(map[string]models.Company),
	}
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return ctx.Err() }

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable("create debt", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	debt.ID = uuid.NewString()
	r.debts[debt.ID] = *debt
	r.order = append(r.order, debt.ID)
	return nil
}

func (r *MemoryRepository) GetDebt(ctx context.Context, id string) (*models.Debt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.debts[id]
	if !ok {
		return nil, apperr.NotFound("debt", id)
	}
	return &d, nil
}

func (r *MemoryRepository) ListDebts(ctx context.Context, status *models.DebtStatus) ([]models.Debt, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailable("list debts", err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Debt, 0, len(r.order))
	for _, id := range r.order {
		d := r.debts[id]
		if status != nil && d.Status != *status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *MemoryRepository) UpdateDebt(ctx context.Context, id string, patch models.DebtPatch) (*models.Debt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.debts[id]
	if !ok {
		return nil, apperr.NotFound("debt", id)
	}
	patch.Apply(&d)
	r.debts[id] = d
	return &d, nil
}

func (r *MemoryRepository) DeleteDebt(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.debts[id]; !ok {
		return false, nil
	}
	delete(r.debts, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *MemoryRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Company, 0, len(r.companies))
	for _, c := range r.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) AddCompany(ctx context.Context, name string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.companies {
		if c.Name == name {
			existing := c
			return &existing, nil
		}
	}
	c := models.Company{ID: uuid.NewString(), Name: name}
	r.companies[c.ID] = c
	return &c, nil
}

func (r *MemoryRepository) DeleteCompany(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.companies[id]; !ok {
		return false, nil
	}
	delete(r.companies, id)
	return true, nil
}

func (r *MemoryRepository) FindCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.companies {
		if c.Name == name {
			found := c
			return &found, nil
		}
	}
	return nil, apperr.NotFound("company", name)
}
