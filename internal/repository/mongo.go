package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/hutangku/internal/apperr"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	debtsCollection     = "debts"
	companiesCollection = "companies"
)

// debtDocument is the stored shape of a debt. New documents carry Decimal128
// amounts and YYYY-MM-DD due dates; amounts and dates are decoded loosely so
// collections written with doubles or BSON dates stay readable.
type debtDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	CompanyName    string             `bson:"company_name"`
	AmountOwed     interface{}        `bson:"amount_owed"`
	MinimumPayment interface{}        `bson:"minimum_payment"`
	DueDate        interface{}        `bson:"due_date"`
	Status         string             `bson:"status"`
	Notes          string             `bson:"notes"`
}

type companyDocument struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

// MongoRepository provides MongoDB-backed storage
type MongoRepository struct {
	client    *mongo.Client
	debts     *mongo.Collection
	companies *mongo.Collection
	log       *logrus.Logger
}

// NewMongoRepository connects to MongoDB and prepares the collections.
// Documents that cannot be decoded are reported to log and left out of lists.
func NewMongoRepository(ctx context.Context, uri, database string, log *logrus.Logger) (*MongoRepository, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.Unavailable("connect", err)
	}
	db := client.Database(database)
	r := &MongoRepository{
		client:    client,
		debts:     db.Collection(debtsCollection),
		companies: db.Collection(companiesCollection),
		log:       log,
	}
	if err := r.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return r, nil
}

// EnsureIndexes creates the unique company name and debt status indexes
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.companies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return apperr.Unavailable("create company index", err)
	}
	_, err = r.debts.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}})
	return apperr.Unavailable("create debt index", err)
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return apperr.Unavailable("ping", r.client.Ping(ctx, nil))
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, apperr.Invalid("amount", "cannot store %s: %v", d.String(), err)
	}
	return v, nil
}

func toDocument(d *models.Debt) (*debtDocument, error) {
	amount, err := toDecimal128(d.AmountOwed)
	if err != nil {
		return nil, err
	}
	minimum, err := toDecimal128(d.MinimumPayment)
	if err != nil {
		return nil, err
	}
	return &debtDocument{
		CompanyName:    d.CompanyName,
		AmountOwed:     amount,
		MinimumPayment: minimum,
		DueDate:        d.DueDate.String(),
		Status:         d.Status.String(),
		Notes:          d.Notes,
	}, nil
}

// decodeAmount reads a Decimal128, double, integer or numeric string
func decodeAmount(v interface{}) (decimal.Decimal, error) {
	switch a := v.(type) {
	case primitive.Decimal128:
		return decimal.NewFromString(a.String())
	case float64:
		return decimal.NewFromFloat(a), nil
	case int32:
		return decimal.NewFromInt32(a), nil
	case int64:
		return decimal.NewFromInt(a), nil
	case string:
		return decimal.NewFromString(a)
	case nil:
		return decimal.Decimal{}, fmt.Errorf("missing")
	}
	return decimal.Decimal{}, fmt.Errorf("unsupported type %T", v)
}

// decodeDueDate reads a date string or BSON datetime. Anything else is a
// missing date.
func decodeDueDate(v interface{}) models.Date {
	switch d := v.(type) {
	case string:
		due, _ := models.ParseDate(d)
		return due
	case primitive.DateTime:
		return models.DateOf(d.Time().UTC())
	case time.Time:
		return models.DateOf(d.UTC())
	}
	return models.Date{}
}

// toDebt converts a stored document. An unreadable due date becomes a
// missing date rather than an error.
func (doc *debtDocument) toDebt() (*models.Debt, error) {
	status, err := models.ParseStatus(doc.Status)
	if err != nil {
		return nil, fmt.Errorf("debt %s: %w", doc.ID.Hex(), err)
	}
	amount, err := decodeAmount(doc.AmountOwed)
	if err != nil {
		return nil, fmt.Errorf("debt %s: amount_owed: %w", doc.ID.Hex(), err)
	}
	minimum, err := decodeAmount(doc.MinimumPayment)
	if err != nil {
		return nil, fmt.Errorf("debt %s: minimum_payment: %w", doc.ID.Hex(), err)
	}
	due := decodeDueDate(doc.DueDate)
	return &models.Debt{
		ID:             doc.ID.Hex(),
		CompanyName:    doc.CompanyName,
		AmountOwed:     amount,
		MinimumPayment: minimum,
		DueDate:        due,
		Status:         status,
		Notes:          doc.Notes,
	}, nil
}

func (r *MongoRepository) CreateDebt(ctx context.Context, debt *models.Debt) error {
	doc, err := toDocument(debt)
	if err != nil {
		return err
	}
	res, err := r.debts.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create debt: %w", apperr.Unavailable("create debt", err))
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("failed to create debt: unexpected id type %T", res.InsertedID)
	}
	debt.ID = oid.Hex()
	return nil
}

func (r *MongoRepository) GetDebt(ctx context.Context, id string) (*models.Debt, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("debt", id)
	}
	var doc debtDocument
	err = r.debts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("debt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debt: %w", apperr.Unavailable("get debt", err))
	}
	return doc.toDebt()
}

func (r *MongoRepository) ListDebts(ctx context.Context, status *models.DebtStatus) ([]models.Debt, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = status.String()
	}
	cur, err := r.debts.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", apperr.Unavailable("list debts", err))
	}
	var docs []debtDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", apperr.Unavailable("list debts", err))
	}

	return decodeDebts(docs, r.log), nil
}

// decodeDebts converts documents, skipping the ones that cannot be read
func decodeDebts(docs []debtDocument, log *logrus.Logger) []models.Debt {
	debts := make([]models.Debt, 0, len(docs))
	for i := range docs {
		d, err := docs[i].toDebt()
		if err != nil {
			log.WithError(err).Warn("Skipping unreadable debt document")
			continue
		}
		debts = append(debts, *d)
	}
	return debts
}

func (r *MongoRepository) UpdateDebt(ctx context.Context, id string, patch models.DebtPatch) (*models.Debt, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NotFound("debt", id)
	}
	if patch.IsEmpty() {
		return r.GetDebt(ctx, id)
	}

	set := bson.M{}
	if patch.CompanyName != nil {
		set["company_name"] = *patch.CompanyName
	}
	if patch.AmountOwed != nil {
		v, err := toDecimal128(*patch.AmountOwed)
		if err != nil {
			return nil, err
		}
		set["amount_owed"] = v
	}
	if patch.MinimumPayment != nil {
		v, err := toDecimal128(*patch.MinimumPayment)
		if err != nil {
			return nil, err
		}
		set["minimum_payment"] = v
	}
	if patch.DueDate != nil {
		set["due_date"] = patch.DueDate.String()
	}
	if patch.Status != nil {
		set["status"] = patch.Status.String()
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc debtDocument
	err = r.debts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("debt", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update debt: %w", apperr.Unavailable("update debt", err))
	}
	return doc.toDebt()
}

func (r *MongoRepository) DeleteDebt(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.debts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("failed to delete debt: %w", apperr.Unavailable("delete debt", err))
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	cur, err := r.companies.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", apperr.Unavailable("list companies", err))
	}
	var docs []companyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", apperr.Unavailable("list companies", err))
	}
	out := make([]models.Company, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.Company{ID: doc.ID.Hex(), Name: doc.Name})
	}
	return out, nil
}

func (r *MongoRepository) AddCompany(ctx context.Context, name string) (*models.Company, error) {
	existing, err := r.FindCompanyByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	res, err := r.companies.InsertOne(ctx, companyDocument{Name: name})
	if mongo.IsDuplicateKeyError(err) {
		// lost a race with a concurrent insert of the same name
		return r.FindCompanyByName(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add company: %w", apperr.Unavailable("add company", err))
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return &models.Company{ID: oid.Hex(), Name: name}, nil
}

func (r *MongoRepository) DeleteCompany(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.companies.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("failed to delete company: %w", apperr.Unavailable("delete company", err))
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) FindCompanyByName(ctx context.Context, name string) (*models.Company, error) {
	var doc companyDocument
	err := r.companies.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("company", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company: %w", apperr.Unavailable("find company", err))
	}
	return &models.Company{ID: doc.ID.Hex(), Name: doc.Name}, nil
}
