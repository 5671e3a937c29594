package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bank-account-service/internal/domain/transaction"
	"github.com/bank-account-service/internal/logger"
)

const (
	// TransactionCollectionName is the name of the transaction collection in MongoDB
	TransactionCollectionName = "transactions"
)

// transactionDocument is the stored form of a transaction. Amounts are kept as
// Decimal128 so no precision is lost.
type transactionDocument struct {
	ID            string               `bson:"_id"`
	BankAccountID int64                `bson:"bank_account_id"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Type          string               `bson:"type"`
	CorrelationID string               `bson:"correlation_id,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
}

func toDocument(tx *transaction.Transaction) (*transactionDocument, error) {
	amount, err := primitive.ParseDecimal128(tx.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount %s: %w", tx.Amount, err)
	}
	return &transactionDocument{
		ID:            tx.ID.String(),
		BankAccountID: tx.BankAccountID,
		Amount:        amount,
		Type:          string(tx.Type),
		CorrelationID: tx.CorrelationID,
		CreatedAt:     tx.CreatedAt,
	}, nil
}

func (d *transactionDocument) toTransaction() (*transaction.Transaction, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id %q: %w", d.ID, err)
	}
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", d.Amount.String(), err)
	}
	return &transaction.Transaction{
		ID:            id,
		BankAccountID: d.BankAccountID,
		Amount:        amount,
		Type:          transaction.Type(d.Type),
		CorrelationID: d.CorrelationID,
		CreatedAt:     d.CreatedAt.UTC(),
	}, nil
}

// TransactionRepository implements transaction.Repository for MongoDB. It also
// serves as a transaction.Log that writes records directly.
type TransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransactionRepository creates a new MongoDB transaction repository
func NewTransactionRepository(logger *slog.Logger, db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the index backing per-account history queries
func (r *TransactionRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(TransactionCollectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bank_account_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("bank_account_id_created_at"),
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	return nil
}

// Create stores a new transaction. The transaction ID is the document key, so
// storing the same transaction twice returns ErrDuplicateTransaction.
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	doc, err := toDocument(tx)
	if err != nil {
		return err
	}

	collection := r.db.Collection(TransactionCollectionName)
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return transaction.ErrDuplicateTransaction{ID: tx.ID}
		}
		r.logger.Error("Failed to create transaction",
			"transaction_id", tx.ID.String(),
			"error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// Append records a balance operation for the account, tagged with the request's correlation ID
func (r *TransactionRepository) Append(ctx context.Context, bankAccountID int64, amount decimal.Decimal, txType transaction.Type) error {
	tx := transaction.New(bankAccountID, amount, txType, logger.CorrelationID(ctx))
	if err := tx.Validate(); err != nil {
		return err
	}
	return r.Create(ctx, tx)
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	var doc transactionDocument
	err := collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction",
			"transaction_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return doc.toTransaction()
}

// ListByBankAccountID retrieves paginated transactions for an account, newest first
func (r *TransactionRepository) ListByBankAccountID(ctx context.Context, bankAccountID int64, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"bank_account_id": bankAccountID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list transactions",
			"bank_account_id", bankAccountID,
			"error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode transactions",
			"bank_account_id", bankAccountID,
			"error", err)
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	txs := make([]*transaction.Transaction, 0, len(docs))
	for i := range docs {
		tx, err := docs[i].toTransaction()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// CountByBankAccountID counts the transactions recorded for an account
func (r *TransactionRepository) CountByBankAccountID(ctx context.Context, bankAccountID int64) (int64, error) {
	collection := r.db.Collection(TransactionCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"bank_account_id": bankAccountID})
	if err != nil {
		r.logger.Error("Failed to count transactions",
			"bank_account_id", bankAccountID,
			"error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

var (
	_ transaction.Repository = (*TransactionRepository)(nil)
	_ transaction.Log        = (*TransactionRepository)(nil)
)
