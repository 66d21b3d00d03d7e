package repository

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"time"

	"github.com/Dan9191/hutangku/internal/apperr"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleDebt(company string) *models.Debt {
	return &models.Debt{
		CompanyName:    company,
		AmountOwed:     decimal.RequireFromString("150.25"),
		MinimumPayment: decimal.RequireFromString("30"),
		DueDate:        models.NewDate(2025, time.June, 15),
		Status:         models.StatusActive,
		Notes:          "plan 3/6",
	}
}

// runStoreContract exercises the behaviour every Store implementation shares
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	t.Run("CreateAndGet", func(t *testing.T) {
		in := sampleDebt("Atome " + suffix)
		require.NoError(t, store.CreateDebt(ctx, in))
		require.NotEmpty(t, in.ID)

		got, err := store.GetDebt(ctx, in.ID)
		require.NoError(t, err)
		assert.Equal(t, in.CompanyName, got.CompanyName)
		assert.True(t, in.AmountOwed.Equal(got.AmountOwed))
		assert.True(t, in.MinimumPayment.Equal(got.MinimumPayment))
		assert.Equal(t, in.DueDate, got.DueDate)
		assert.Equal(t, in.Status, got.Status)
		assert.Equal(t, in.Notes, got.Notes)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		_, err := store.GetDebt(ctx, "does-not-exist")
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		in := sampleDebt("Pace " + suffix)
		require.NoError(t, store.CreateDebt(ctx, in))

		paid := models.StatusPaidOff
		got, err := store.UpdateDebt(ctx, in.ID, models.DebtPatch{Status: &paid})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPaidOff, got.Status)
		assert.Equal(t, in.CompanyName, got.CompanyName)
		assert.True(t, in.AmountOwed.Equal(got.AmountOwed))

		_, err = store.UpdateDebt(ctx, "does-not-exist", models.DebtPatch{Status: &paid})
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("ListByStatus", func(t *testing.T) {
		active := sampleDebt("Rely " + suffix)
		paid := sampleDebt("Rely " + suffix)
		paid.Status = models.StatusPaidOff
		require.NoError(t, store.CreateDebt(ctx, active))
		require.NoError(t, store.CreateDebt(ctx, paid))

		status := models.StatusPaidOff
		list, err := store.ListDebts(ctx, &status)
		require.NoError(t, err)
		ids := make(map[string]bool)
		for _, d := range list {
			assert.Equal(t, models.StatusPaidOff, d.Status)
			ids[d.ID] = true
		}
		assert.True(t, ids[paid.ID])
		assert.False(t, ids[active.ID])

		all, err := store.ListDebts(ctx, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 2)
	})

	t.Run("Delete", func(t *testing.T) {
		in := sampleDebt("Hoolah " + suffix)
		require.NoError(t, store.CreateDebt(ctx, in))

		ok, err := store.DeleteDebt(ctx, in.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.DeleteDebt(ctx, in.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Companies", func(t *testing.T) {
		name := "Lazada PayLater " + suffix
		first, err := store.AddCompany(ctx, name)
		require.NoError(t, err)
		second, err := store.AddCompany(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		found, err := store.FindCompanyByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)

		_, err = store.FindCompanyByName(ctx, "lazada paylater "+suffix)
		assert.True(t, apperr.IsNotFound(err))

		list, err := store.ListCompanies(ctx)
		require.NoError(t, err)
		var names []string
		for _, c := range list {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, name)

		ok, err := store.DeleteCompany(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = store.DeleteCompany(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMemoryRepository(t *testing.T) {
	runStoreContract(t, NewMemoryRepository())
}

func TestMemoryRepository_ListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	a, b := sampleDebt("A"), sampleDebt("B")
	require.NoError(t, r.CreateDebt(ctx, a))
	require.NoError(t, r.CreateDebt(ctx, b))

	list, err := r.ListDebts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
}

func TestMemoryRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryRepository().ListDebts(ctx, nil)
	assert.True(t, apperr.IsUnavailable(err))
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DB_CONN")
	if dsn == "" {
		t.Skip("TEST_DB_CONN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	repo := NewRepository(db)
	defer repo.Close()
	require.NoError(t, repo.Migrate(context.Background()))

	runStoreContract(t, repo)
}

func TestPostgresRepository_NonNumericID(t *testing.T) {
	_, ok := parseID("abc")
	assert.False(t, ok)
	_, ok = parseID("-3")
	assert.False(t, ok)
	n, ok := parseID("17")
	assert.True(t, ok)
	assert.Equal(t, int64(17), n)
}

func TestMongoRepository(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo, err := NewMongoRepository(ctx, uri, "hutangku_test", nil)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.EnsureIndexes(ctx))

	runStoreContract(t, repo)
}

func TestDebtDocument_UnreadableDueDate(t *testing.T) {
	doc := sampleDocument(t)
	doc.DueDate = "someday"

	d, err := doc.toDebt()
	require.NoError(t, err)
	assert.True(t, d.DueDate.IsZero())
}

func TestDebtDocument_RoundTrip(t *testing.T) {
	in := sampleDebt("Shopee PayLater")
	doc, err := toDocument(in)
	require.NoError(t, err)

	out, err := doc.toDebt()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", doc.DueDate)
	assert.True(t, in.AmountOwed.Equal(out.AmountOwed))
	assert.Equal(t, in.DueDate, out.DueDate)
	assert.Equal(t, in.Status, out.Status)
}

func TestDebtDocument_LegacyShapes(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":             primitive.NewObjectID(),
		"company_name":    "Atome",
		"amount_owed":     150.5,
		"minimum_payment": int32(50),
		"due_date":        primitive.NewDateTimeFromTime(time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC)),
		"status":          "Active Debt",
		"notes":           "",
	})
	require.NoError(t, err)

	var doc debtDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	d, err := doc.toDebt()
	require.NoError(t, err)

	assert.Equal(t, "150.5", d.AmountOwed.String())
	assert.Equal(t, "50", d.MinimumPayment.String())
	assert.Equal(t, "2025-03-13", d.DueDate.String())
}

func TestDebtDocument_StoredDecimalsDecode(t *testing.T) {
	raw, err := bson.Marshal(sampleDocument(t))
	require.NoError(t, err)

	var doc debtDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	d, err := doc.toDebt()
	require.NoError(t, err)
	assert.Equal(t, "150.25", d.AmountOwed.String())
	assert.Equal(t, "2025-06-15", d.DueDate.String())
}

func TestDecodeDebts_SkipsUnreadable(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	good := sampleDocument(t)
	badStatus := sampleDocument(t)
	badStatus.Status = "Closed"
	badAmount := sampleDocument(t)
	badAmount.AmountOwed = true
	missingAmount := sampleDocument(t)
	missingAmount.MinimumPayment = nil

	debts := decodeDebts([]debtDocument{*badStatus, *good, *badAmount, *missingAmount}, logger)
	require.Len(t, debts, 1)
	assert.Equal(t, "Grab PayLater", debts[0].CompanyName)
}

func sampleDocument(t *testing.T) *debtDocument {
	doc, err := toDocument(sampleDebt("Grab PayLater"))
	require.NoError(t, err)
	return doc
}
