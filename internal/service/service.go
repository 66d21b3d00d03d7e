package service

import (
	"context"
	"time"

	"github.com/Dan9191/hutangku/internal/apperr"
	"github.com/Dan9191/hutangku/internal/catalog"
	"github.com/Dan9191/hutangku/internal/config"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/Dan9191/hutangku/internal/repository"
	"github.com/Dan9191/hutangku/internal/urgency"
	"github.com/Dan9191/hutangku/internal/utils"
	"github.com/sirupsen/logrus"
)

// Service handles business logic
type Service struct {
	store   repository.Store
	log     *logrus.Logger
	config  *config.Config
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewService initializes a new service
func NewService(store repository.Store, log *logrus.Logger, cfg *config.Config, cat *catalog.Catalog) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Service{store: store, log: log, config: cfg, catalog: cat, now: time.Now}
}

// SetClock replaces the wall clock used to decide what "today" is
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Today returns the current calendar date in the configured timezone
func (s *Service) Today() models.Date {
	t := s.now()
	if s.config.Location != nil {
		t = t.In(s.config.Location)
	}
	return models.DateOf(t)
}

// Options returns the classification settings from configuration
func (s *Service) Options() urgency.Options {
	return urgency.Options{
		WarningDays:        s.config.WarningDays,
		SmallDebtThreshold: s.config.SmallDebtThreshold,
	}
}

// Ping checks that the store is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CreateDebt validates and stores a new debt
func (s *Service) CreateDebt(ctx context.Context, in models.Debt) (*models.Debt, error) {
	in.ID = ""
	if err := ValidateDebt(&in); err != nil {
		return nil, err
	}

	stored := in
	sealed, err := s.sealNotes(in.Notes)
	if err != nil {
		return nil, err
	}
	stored.Notes = sealed
	if err := s.store.CreateDebt(ctx, &stored); err != nil {
		return nil, err
	}

	in.ID = stored.ID
	s.log.Infof("Debt created: %s (%s, %s)", in.ID, in.CompanyName, in.AmountOwed.StringFixed(2))
	return &in, nil
}

// GetDebt retrieves a debt by id
func (s *Service) GetDebt(ctx context.Context, id string) (*models.Debt, error) {
	d, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return nil, err
	}
	s.openNotes(d)
	return d, nil
}

// ListDebts retrieves all debts, optionally filtered by status
func (s *Service) ListDebts(ctx context.Context, status *models.DebtStatus) ([]models.Debt, error) {
	debts, err := s.store.ListDebts(ctx, status)
	if err != nil {
		return nil, err
	}
	for i := range debts {
		s.openNotes(&debts[i])
	}
	return debts, nil
}

// UpdateDebt applies a partial update
func (s *Service) UpdateDebt(ctx context.Context, id string, patch models.DebtPatch) (*models.Debt, error) {
	if err := ValidatePatch(&patch); err != nil {
		return nil, err
	}
	if patch.Notes != nil {
		sealed, err := s.sealNotes(*patch.Notes)
		if err != nil {
			return nil, err
		}
		patch.Notes = &sealed
	}

	d, err := s.store.UpdateDebt(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.openNotes(d)
	s.log.Infof("Debt updated: %s", id)
	return d, nil
}

// MarkPaid moves a debt to PaidOff
func (s *Service) MarkPaid(ctx context.Context, id string) (*models.Debt, error) {
	paid := models.StatusPaidOff
	return s.UpdateDebt(ctx, id, models.DebtPatch{Status: &paid})
}

// DeleteDebt removes a debt permanently
func (s *Service) DeleteDebt(ctx context.Context, id string) error {
	ok, err := s.store.DeleteDebt(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("debt", id)
	}
	s.log.Infof("Debt deleted: %s", id)
	return nil
}

// ListCompanies returns the names of all stored companies
func (s *Service) ListCompanies(ctx context.Context) ([]string, error) {
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		names = append(names, c.Name)
	}
	return names, nil
}

// AddCompany stores a company name, returning the existing record if present
func (s *Service) AddCompany(ctx context.Context, name string) (*models.Company, error) {
	name, err := ValidateCompanyName(name)
	if err != nil {
		return nil, err
	}
	c, err := s.store.AddCompany(ctx, name)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Company added: %s", c.Name)
	return c, nil
}

// DeleteCompany removes a stored company
func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	ok, err := s.store.DeleteCompany(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("company", id)
	}
	s.log.Infof("Company deleted: %s", id)
	return nil
}

// FindCompanyByName looks a company up by exact name
func (s *Service) FindCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	return s.store.FindCompanyByName(ctx, name)
}

// CompanySuggestions merges the built-in catalog with stored companies
func (s *Service) CompanySuggestions(ctx context.Context) ([]string, error) {
	stored, err := s.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return s.catalog.Merge(stored), nil
}

// Dashboard classifies every stored debt. When today is nil the configured
// clock decides the reference date.
func (s *Service) Dashboard(ctx context.Context, today *models.Date) (*urgency.Report, error) {
	debts, err := s.ListDebts(ctx, nil)
	if err != nil {
		return nil, err
	}
	ref := s.Today()
	if today != nil {
		ref = *today
	}
	return urgency.Classify(debts, ref, s.Options()), nil
}

func (s *Service) sealNotes(notes string) (string, error) {
	if len(s.config.EncryptionKey) == 0 {
		return notes, nil
	}
	return utils.SealNote(notes, s.config.EncryptionKey)
}

// openNotes decrypts notes in place. A note that cannot be decrypted is left
// as stored.
func (s *Service) openNotes(d *models.Debt) {
	if len(s.config.EncryptionKey) == 0 || !utils.IsSealed(d.Notes) {
		return
	}
	plain, err := utils.OpenNote(d.Notes, s.config.EncryptionKey)
	if err != nil {
		s.log.WithError(err).Warnf("Failed to decrypt notes of debt %s", d.ID)
		return
	}
	d.Notes = plain
}
