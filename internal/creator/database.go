package creator

import (
	"time"

	"creatorvault/internal/model"
)

// ContentFilter narrows content listings. Zero fields do not filter.
type ContentFilter struct {
	Status         model.ContentStatus
	CreatorAddress string
	ContentType    model.ContentType
	Tag            string
	Limit          int
	Offset         int
}

// Counter names a content counter column.
type Counter string

const (
	CounterViews Counter = "views"
	CounterLikes Counter = "likes"
)

// Database provides keyed, transactional storage for the service.
// Find methods return nil, nil when the record does not exist.
type Database interface {
	// Content operations

	// FindContentByID returns a content item with its tags.
	FindContentByID(id string) (*model.ContentItem, error)

	// ListContent returns items matching filter, newest first.
	ListContent(filter ContentFilter) ([]*model.ContentItem, error)

	// SaveContent inserts or replaces an item and its tags in one transaction.
	// Replacing keeps the stored view and like counters.
	// Returns the item as stored.
	SaveContent(item *model.ContentItem) (*model.ContentItem, error)

	// DeleteContent removes an item and its tags. Returns false if it did not exist.
	DeleteContent(id string) (bool, error)

	// IncrementContentCounter atomically adds one to a counter and returns the new value.
	// found is false when the item does not exist.
	IncrementContentCounter(id string, counter Counter) (value int64, found bool, err error)

	// Payment operations

	FindPaymentByID(id string) (*model.Payment, error)
	FindPaymentByIdempotencyKey(payerAddress, key string) (*model.Payment, error)

	// CreatePayment inserts a pending payment.
	CreatePayment(payment *model.Payment) error

	// ConfirmPurchase marks a pending payment confirmed and appends the
	// purchase record in one transaction.
	ConfirmPurchase(paymentID, txHash string, at time.Time, purchase *model.PurchaseRecord) error

	// ConfirmTip marks a pending payment confirmed and appends the tip record
	// in one transaction.
	ConfirmTip(paymentID, txHash string, at time.Time, tip *model.TipRecord) error

	// FailPayment marks a pending payment failed.
	FailPayment(paymentID, reason string, at time.Time) error

	// FailPendingPaymentsBefore fails every payment still pending that was
	// created before cutoff. Returns the number of payments failed.
	FailPendingPaymentsBefore(cutoff time.Time, reason string, at time.Time) (int64, error)

	// Purchase and tip operations

	FindPurchaseByPaymentID(paymentID string) (*model.PurchaseRecord, error)
	FindTipByPaymentID(paymentID string) (*model.TipRecord, error)
	HasPurchase(contentID, buyerAddress string) (bool, error)
	ListPurchasesByBuyer(buyerAddress string) ([]*model.PurchaseRecord, error)

	// ListPurchasesForCreator returns purchases of content owned by the
	// creator, newest first.
	ListPurchasesForCreator(creatorAddress string) ([]*model.PurchaseRecord, error)

	// ListTipsForCreator returns tips sent to the creator, newest first.
	ListTipsForCreator(creatorAddress string) ([]*model.TipRecord, error)

	ListAllPurchases() ([]*model.PurchaseRecord, error)
	ListAllTips() ([]*model.TipRecord, error)

	// InsertPurchase appends a purchase unless one with the same id exists.
	// Returns false when it was already present.
	InsertPurchase(purchase *model.PurchaseRecord) (bool, error)

	// InsertTip appends a tip unless one with the same id exists.
	InsertTip(tip *model.TipRecord) (bool, error)

	// Media operations

	// CreateMedia records a media object. Existing hashes are left untouched.
	CreateMedia(media *model.MediaObject) error
	FindMediaByHash(hash string) (*model.MediaObject, error)

	// Operation history

	CreateOperation(operation string, parameters string) (*model.Operation, error)
	FinishOperation(id int64, status string) error
	ListOperations(limit int) ([]*model.Operation, error)
	MaxOperationID() (int64, error)

	// Lifecycle

	// CheckMigrations returns an error if the schema is not at the latest version.
	CheckMigrations() error

	// BackupTo writes a complete copy of the database to destPath.
	BackupTo(destPath string) error

	Ping() error
	Close() error
}
