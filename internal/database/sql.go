package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"creatorvault/internal/creator"
	"creatorvault/internal/database/migrations"
	"creatorvault/internal/model"
)

// ErrPaymentNotPending is returned when settling a payment that already settled.
var ErrPaymentNotPending = errors.New("payment is not pending")

// ErrBackupUnsupported is returned by BackupTo on servers that cannot
// snapshot to a local file.
var ErrBackupUnsupported = errors.New("backup is only supported for sqlite")

// SQLDatabase implements the Database interface on SQLite or Postgres.
type SQLDatabase struct {
	db      *sqlx.DB
	dialect string
	path    string
}

// OpenSQLite opens a SQLite database with foreign keys enabled.
// path can be a file path or ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLDatabase, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer, and every connection to ":memory:" is a
	// separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLDatabase{db: db, dialect: migrations.DialectSQLite, path: path}, nil
}

// OpenPostgres connects to a Postgres server.
func OpenPostgres(dsn string) (*SQLDatabase, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLDatabase{db: db, dialect: migrations.DialectPostgres}, nil
}

// NewSQLDatabaseFromDB wraps an existing connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLDatabaseFromDB(db *sqlx.DB, dialect string) *SQLDatabase {
	return &SQLDatabase{db: db, dialect: dialect}
}

// MigrateUp brings the schema to the latest version.
func (s *SQLDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db.DB, s.dialect)
}

// Path returns the database file path (empty for Postgres).
func (s *SQLDatabase) Path() string {
	return s.path
}

// Dialect returns "sqlite" or "postgres".
func (s *SQLDatabase) Dialect() string {
	return s.dialect
}

// Content operations

const contentColumns = `id, title, description, body, content_type, cover_image, price, is_premium,
	creator_address, creator_name, created_at, updated_at, views, likes, status`

func (s *SQLDatabase) FindContentByID(id string) (*model.ContentItem, error) {
	return findContent(s.db, id)
}

func findContent(q sqlx.Ext, id string) (*model.ContentItem, error) {
	var item model.ContentItem
	err := sqlx.Get(q, &item, q.Rebind(`SELECT `+contentColumns+` FROM content_items WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding content: %w", err)
	}
	items := []*model.ContentItem{&item}
	if err := loadTags(q, items); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *SQLDatabase) ListContent(filter creator.ContentFilter) ([]*model.ContentItem, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.CreatorAddress != "" {
		where = append(where, "LOWER(creator_address) = LOWER(?)")
		args = append(args, filter.CreatorAddress)
	}
	if filter.ContentType != "" {
		where = append(where, "content_type = ?")
		args = append(args, filter.ContentType)
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM content_tags t WHERE t.content_id = content_items.id AND t.tag = ?)")
		args = append(args, filter.Tag)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + contentColumns + ` FROM content_items`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	switch {
	case filter.Limit > 0:
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	case filter.Offset > 0 && s.dialect == migrations.DialectSQLite:
		b.WriteString(" LIMIT -1")
	}
	if filter.Offset > 0 {
		b.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	var items []*model.ContentItem
	if err := s.db.Select(&items, s.db.Rebind(b.String()), args...); err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	if err := loadTags(s.db, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SQLDatabase) SaveContent(item *model.ContentItem) (*model.ContentItem, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := *item
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()

	_, err = tx.NamedExec(`
		INSERT INTO content_items (`+contentColumns+`)
		VALUES (:id, :title, :description, :body, :content_type, :cover_image, :price, :is_premium,
			:creator_address, :creator_name, :created_at, :updated_at, :views, :likes, :status)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			body = excluded.body,
			content_type = excluded.content_type,
			cover_image = excluded.cover_image,
			price = excluded.price,
			is_premium = excluded.is_premium,
			creator_address = excluded.creator_address,
			creator_name = excluded.creator_name,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			status = excluded.status`, &row)
	if err != nil {
		return nil, fmt.Errorf("saving content: %w", err)
	}

	if _, err := tx.Exec(tx.Rebind(`DELETE FROM content_tags WHERE content_id = ?`), row.ID); err != nil {
		return nil, fmt.Errorf("clearing tags: %w", err)
	}
	for i, tag := range row.Tags {
		_, err := tx.Exec(tx.Rebind(`INSERT INTO content_tags (content_id, position, tag) VALUES (?, ?, ?)`), row.ID, i, tag)
		if err != nil {
			return nil, fmt.Errorf("saving tag %q: %w", tag, err)
		}
	}

	stored, err := findContent(tx, row.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing content: %w", err)
	}
	return stored, nil
}

func (s *SQLDatabase) DeleteContent(id string) (bool, error) {
	res, err := s.db.Exec(s.db.Rebind(`DELETE FROM content_items WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("deleting content: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting content: %w", err)
	}
	return n > 0, nil
}

func (s *SQLDatabase) IncrementContentCounter(id string, counter creator.Counter) (int64, bool, error) {
	var column string
	switch counter {
	case creator.CounterViews:
		column = "views"
	case creator.CounterLikes:
		column = "likes"
	default:
		return 0, false, fmt.Errorf("unknown counter %q", counter)
	}

	var value int64
	query := fmt.Sprintf(`UPDATE content_items SET %[1]s = %[1]s + 1 WHERE id = ? RETURNING %[1]s`, column)
	err := s.db.QueryRowx(s.db.Rebind(query), id).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("incrementing %s: %w", column, err)
	}
	return value, true, nil
}

// loadTags fills Tags on each item in position order.
func loadTags(q sqlx.Ext, items []*model.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[string]*model.ContentItem, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		item.Tags = []string{}
		byID[item.ID] = item
		ids = append(ids, item.ID)
	}

	query, args, err := sqlx.In(`SELECT content_id, tag FROM content_tags WHERE content_id IN (?) ORDER BY content_id, position`, ids)
	if err != nil {
		return fmt.Errorf("building tag query: %w", err)
	}
	var rows []struct {
		ContentID string `db:"content_id"`
		Tag       string `db:"tag"`
	}
	if err := sqlx.Select(q, &rows, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	for _, r := range rows {
		if item, ok := byID[r.ContentID]; ok {
			item.Tags = append(item.Tags, r.Tag)
		}
	}
	return nil
}

// Payment operations

const paymentColumns = `id, kind, idempotency_key, payer_address, recipient_address, content_id, amount,
	message, status, tx_hash, failure_reason, created_at, updated_at`

func (s *SQLDatabase) FindPaymentByID(id string) (*model.Payment, error) {
	return s.findPayment(`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
}

func (s *SQLDatabase) FindPaymentByIdempotencyKey(payerAddress, key string) (*model.Payment, error) {
	return s.findPayment(`SELECT `+paymentColumns+` FROM payments WHERE payer_address = ? AND idempotency_key = ?`, payerAddress, key)
}

func (s *SQLDatabase) findPayment(query string, args ...any) (*model.Payment, error) {
	var payment model.Payment
	if err := s.db.Get(&payment, s.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding payment: %w", err)
	}
	return &payment, nil
}

func (s *SQLDatabase) CreatePayment(payment *model.Payment) error {
	row := *payment
	row.CreatedAt = row.CreatedAt.UTC()
	row.UpdatedAt = row.UpdatedAt.UTC()
	_, err := s.db.NamedExec(`
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :kind, :idempotency_key, :payer_address, :recipient_address, :content_id, :amount,
			:message, :status, :tx_hash, :failure_reason, :created_at, :updated_at)`, &row)
	if err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}
	return nil
}

func (s *SQLDatabase) ConfirmPurchase(paymentID, txHash string, at time.Time, purchase *model.PurchaseRecord) error {
	return s.confirm(paymentID, txHash, at, func(tx *sqlx.Tx) error {
		row := *purchase
		row.Timestamp = row.Timestamp.UTC()
		_, err := tx.NamedExec(`
			INSERT INTO purchases (id, content_id, amount, tx_hash, paid_at, buyer_address, payment_id)
			VALUES (:id, :content_id, :amount, :tx_hash, :paid_at, :buyer_address, :payment_id)`, &row)
		if err != nil {
			return fmt.Errorf("recording purchase: %w", err)
		}
		return nil
	})
}

func (s *SQLDatabase) ConfirmTip(paymentID, txHash string, at time.Time, tip *model.TipRecord) error {
	return s.confirm(paymentID, txHash, at, func(tx *sqlx.Tx) error {
		row := *tip
		row.Timestamp = row.Timestamp.UTC()
		_, err := tx.NamedExec(`
			INSERT INTO tips (id, creator_address, amount, message, tx_hash, paid_at, sender_address, payment_id)
			VALUES (:id, :creator_address, :amount, :message, :tx_hash, :paid_at, :sender_address, :payment_id)`, &row)
		if err != nil {
			return fmt.Errorf("recording tip: %w", err)
		}
		return nil
	})
}

// confirm moves a pending payment to confirmed and runs record in the same
// transaction.
func (s *SQLDatabase) confirm(paymentID, txHash string, at time.Time, record func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(tx.Rebind(`
		UPDATE payments SET status = ?, tx_hash = ?, updated_at = ?
		WHERE id = ? AND status = ?`),
		model.PaymentConfirmed, txHash, at.UTC(), paymentID, model.PaymentPending)
	if err != nil {
		return fmt.Errorf("confirming payment: %w", err)
	}
	if err := requireOneRow(res, paymentID); err != nil {
		return err
	}

	if err := record(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing payment: %w", err)
	}
	return nil
}

func (s *SQLDatabase) FailPayment(paymentID, reason string, at time.Time) error {
	res, err := s.db.Exec(s.db.Rebind(`
		UPDATE payments SET status = ?, failure_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?`),
		model.PaymentFailed, reason, at.UTC(), paymentID, model.PaymentPending)
	if err != nil {
		return fmt.Errorf("failing payment: %w", err)
	}
	return requireOneRow(res, paymentID)
}

func (s *SQLDatabase) FailPendingPaymentsBefore(cutoff time.Time, reason string, at time.Time) (int64, error) {
	res, err := s.db.Exec(s.db.Rebind(`
		UPDATE payments SET status = ?, failure_reason = ?, updated_at = ?
		WHERE status = ? AND created_at < ?`),
		model.PaymentFailed, reason, at.UTC(), model.PaymentPending, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failing stale payments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failing stale payments: %w", err)
	}
	return n, nil
}

func requireOneRow(res sql.Result, paymentID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking payment update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment %s: %w", paymentID, ErrPaymentNotPending)
	}
	return nil
}

// Purchase and tip operations

const (
	purchaseColumns = `id, content_id, amount, tx_hash, paid_at, buyer_address, payment_id`
	tipColumns      = `id, creator_address, amount, message, tx_hash, paid_at, sender_address, payment_id`
)

func (s *SQLDatabase) FindPurchaseByPaymentID(paymentID string) (*model.PurchaseRecord, error) {
	var purchase model.PurchaseRecord
	err := s.db.Get(&purchase, s.db.Rebind(`SELECT `+purchaseColumns+` FROM purchases WHERE payment_id = ?`), paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding purchase: %w", err)
	}
	return &purchase, nil
}

func (s *SQLDatabase) FindTipByPaymentID(paymentID string) (*model.TipRecord, error) {
	var tip model.TipRecord
	err := s.db.Get(&tip, s.db.Rebind(`SELECT `+tipColumns+` FROM tips WHERE payment_id = ?`), paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding tip: %w", err)
	}
	return &tip, nil
}

func (s *SQLDatabase) HasPurchase(contentID, buyerAddress string) (bool, error) {
	var count int
	err := s.db.Get(&count, s.db.Rebind(`
		SELECT COUNT(*) FROM purchases
		WHERE content_id = ? AND LOWER(buyer_address) = LOWER(?)`), contentID, buyerAddress)
	if err != nil {
		return false, fmt.Errorf("checking purchase: %w", err)
	}
	return count > 0, nil
}

func (s *SQLDatabase) ListPurchasesByBuyer(buyerAddress string) ([]*model.PurchaseRecord, error) {
	return s.selectPurchases(`SELECT `+purchaseColumns+` FROM purchases
		WHERE LOWER(buyer_address) = LOWER(?)
		ORDER BY paid_at DESC, id DESC`, buyerAddress)
}

func (s *SQLDatabase) ListPurchasesForCreator(creatorAddress string) ([]*model.PurchaseRecord, error) {
	return s.selectPurchases(`
		SELECT p.id, p.content_id, p.amount, p.tx_hash, p.paid_at, p.buyer_address, p.payment_id
		FROM purchases p
		JOIN content_items c ON c.id = p.content_id
		WHERE LOWER(c.creator_address) = LOWER(?)
		ORDER BY p.paid_at DESC, p.id DESC`, creatorAddress)
}

func (s *SQLDatabase) ListAllPurchases() ([]*model.PurchaseRecord, error) {
	return s.selectPurchases(`SELECT ` + purchaseColumns + ` FROM purchases ORDER BY paid_at, id`)
}

func (s *SQLDatabase) selectPurchases(query string, args ...any) ([]*model.PurchaseRecord, error) {
	var purchases []*model.PurchaseRecord
	if err := s.db.Select(&purchases, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	return purchases, nil
}

func (s *SQLDatabase) ListTipsForCreator(creatorAddress string) ([]*model.TipRecord, error) {
	return s.selectTips(`SELECT `+tipColumns+` FROM tips
		WHERE LOWER(creator_address) = LOWER(?)
		ORDER BY paid_at DESC, id DESC`, creatorAddress)
}

func (s *SQLDatabase) ListAllTips() ([]*model.TipRecord, error) {
	return s.selectTips(`SELECT ` + tipColumns + ` FROM tips ORDER BY paid_at, id`)
}

func (s *SQLDatabase) selectTips(query string, args ...any) ([]*model.TipRecord, error) {
	var tips []*model.TipRecord
	if err := s.db.Select(&tips, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing tips: %w", err)
	}
	return tips, nil
}

func (s *SQLDatabase) InsertPurchase(purchase *model.PurchaseRecord) (bool, error) {
	row := *purchase
	row.Timestamp = row.Timestamp.UTC()
	res, err := s.db.NamedExec(`
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES (:id, :content_id, :amount, :tx_hash, :paid_at, :buyer_address, :payment_id)
		ON CONFLICT (id) DO NOTHING`, &row)
	if err != nil {
		return false, fmt.Errorf("inserting purchase: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting purchase: %w", err)
	}
	return n > 0, nil
}

func (s *SQLDatabase) InsertTip(tip *model.TipRecord) (bool, error) {
	row := *tip
	row.Timestamp = row.Timestamp.UTC()
	res, err := s.db.NamedExec(`
		INSERT INTO tips (`+tipColumns+`)
		VALUES (:id, :creator_address, :amount, :message, :tx_hash, :paid_at, :sender_address, :payment_id)
		ON CONFLICT (id) DO NOTHING`, &row)
	if err != nil {
		return false, fmt.Errorf("inserting tip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting tip: %w", err)
	}
	return n > 0, nil
}

// Media operations

func (s *SQLDatabase) CreateMedia(media *model.MediaObject) error {
	row := *media
	row.CreatedAt = row.CreatedAt.UTC()
	_, err := s.db.NamedExec(`
		INSERT INTO media (hash, filename, content_type, size, encrypted, uploader_address, created_at)
		VALUES (:hash, :filename, :content_type, :size, :encrypted, :uploader_address, :created_at)
		ON CONFLICT (hash) DO NOTHING`, &row)
	if err != nil {
		return fmt.Errorf("creating media: %w", err)
	}
	return nil
}

func (s *SQLDatabase) FindMediaByHash(hash string) (*model.MediaObject, error) {
	var media model.MediaObject
	err := s.db.Get(&media, s.db.Rebind(`
		SELECT hash, filename, content_type, size, encrypted, uploader_address, created_at
		FROM media WHERE hash = ?`), hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding media: %w", err)
	}
	return &media, nil
}

// Operation tracking

func (s *SQLDatabase) CreateOperation(operation string, parameters string) (*model.Operation, error) {
	op := &model.Operation{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  time.Now().UTC(),
		Status:     "running",
	}
	err := s.db.QueryRowx(s.db.Rebind(`
		INSERT INTO operations (operation, parameters, started_at, status)
		VALUES (?, ?, ?, ?) RETURNING id`),
		op.Operation, op.Parameters, op.StartedAt, op.Status).Scan(&op.ID)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return op, nil
}

func (s *SQLDatabase) FinishOperation(id int64, status string) error {
	_, err := s.db.Exec(s.db.Rebind(`UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`),
		time.Now().UTC(), status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	var ops []*model.Operation
	err := s.db.Select(&ops, s.db.Rebind(`
		SELECT id, operation, parameters, started_at, finished_at, status
		FROM operations ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func (s *SQLDatabase) MaxOperationID() (int64, error) {
	var id int64
	if err := s.db.Get(&id, `SELECT COALESCE(MAX(id), 0) FROM operations`); err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db.DB, s.dialect)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLDatabase) BackupTo(destPath string) error {
	if s.dialect != migrations.DialectSQLite {
		return ErrBackupUnsupported
	}
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *SQLDatabase) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection.
func (s *SQLDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLDatabase implements creator.Database interface
var _ creator.Database = (*SQLDatabase)(nil)
