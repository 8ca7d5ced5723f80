// Package app wires configuration into a creator.Service and exposes the
// operations the CLI runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"creatorvault/internal/auth"
	"creatorvault/internal/config"
	"creatorvault/internal/creator"
	"creatorvault/internal/database"
	"creatorvault/internal/encryption"
	"creatorvault/internal/model"
	"creatorvault/internal/payment"
	"creatorvault/internal/sanitize"
	"creatorvault/internal/vault"
)

// snapshotName is the vault metadata slot holding the database snapshot.
const snapshotName = "db"

// Options tune how an App is built.
type Options struct {
	// Console receives log lines in addition to the log file. Nil logs to the file only.
	Console io.Writer
	// Verbose enables debug logging.
	Verbose bool
	// Clock and IDs default to the real clock and random uuids.
	Clock creator.Clock
	IDs   creator.IDGenerator
}

// App is the application layer between the CLI and creator.Service.
// It constructs all dependencies from config, records the running command as
// an operation, and snapshots the database to the vault on Close.
type App struct {
	cfg       *config.Config
	db        creator.Database
	vault     creator.Vault
	encryptor creator.Encryptor
	gateway   creator.PaymentGateway
	service   *creator.Service
	tokens    *auth.TokenIssuer
	logger    creator.Logger
	op        *Operation
	logFile   *os.File
}

// New creates a fully wired App from cfg. operation names the command being
// run (e.g. "Purchase", "Serve"). The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, operation string, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	if opts.Clock == nil {
		opts.Clock = creator.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = creator.UUIDGenerator{}
	}

	v, err := vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	if err := checkSnapshotVersion(cfg, db, v); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	gateway, err := payment.NewGatewayFromConfig(cfg.Payments)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating payment gateway: %w", err)
	}

	svcOpts, err := serviceOptions(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	var tokens *auth.TokenIssuer
	if cfg.Auth.JWTSecret != "" {
		ttl := cfg.Auth.TokenTTL.Duration
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		tokens, err = auth.NewTokenIssuer(cfg.Auth.JWTSecret, ttl, opts.Clock.Now)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating token issuer: %w", err)
		}
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	opID := opts.Clock.Now().UTC().Format("20060102T150405Z")
	sl, logFile, err := newLogger(cfg.LogDir, opID, opts.Console, level)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	svc := creator.NewService(db, v, enc, gateway, logger, opts.Clock, opts.IDs, svcOpts)

	return &App{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		gateway:   gateway,
		service:   svc,
		tokens:    tokens,
		logger:    logger,
		op:        NewOperation(operation, ""),
		logFile:   logFile,
	}, nil
}

// checkSnapshotVersion refuses a sqlite database that is older than the
// snapshot last uploaded to the vault.
func checkSnapshotVersion(cfg *config.Config, db creator.Database, v creator.Vault) error {
	if cfg.Database.Type != "sqlite" {
		return nil
	}
	remoteVersion, err := v.GetMetadataVersion(cfg.InstanceID, snapshotName)
	if err != nil {
		return fmt.Errorf("checking remote metadata version: %w", err)
	}
	localMax, err := db.MaxOperationID()
	if err != nil {
		return fmt.Errorf("checking local metadata version: %w", err)
	}
	if remoteVersion > localMax {
		return fmt.Errorf("local database is behind remote (local=%d, remote=%d): restore from vault or re-initialize", localMax, remoteVersion)
	}
	return nil
}

func serviceOptions(cfg *config.Config) (creator.Options, error) {
	opts := creator.DefaultOptions()
	if cfg.Payments.SimulatedBalance != "" {
		balance, err := model.ParseEther(cfg.Payments.SimulatedBalance)
		if err != nil {
			return opts, fmt.Errorf("payments.simulated_balance: %w", err)
		}
		opts.Balance = balance
	}
	loc, err := cfg.Earnings.Location()
	if err != nil {
		return opts, err
	}
	opts.Location = loc
	opts.DemoOwners = cfg.Auth.DemoOwnerAddresses
	opts.GatewayURL = cfg.Media.GatewayURL
	opts.MaxUploadSize = cfg.Media.MaxUploadSize
	if d := cfg.Payments.PendingTimeout.Duration; d > 0 {
		// A settlement still running at this point would be failed by the reconciler.
		opts.SettleTimeout = d
	}
	if cfg.Server.SanitizeHTML {
		opts.Sanitizer = sanitize.NewHTML()
	}
	return opts, nil
}

// Service returns the wired service for read-only commands.
func (a *App) Service() *creator.Service {
	return a.service
}

// Logger returns the application logger.
func (a *App) Logger() creator.Logger {
	return a.logger
}

// persistOperation saves the operation to the database, giving it an
// auto-increment ID. Only mutating commands call it.
func (a *App) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Identity returns the acting identity for CLI commands: address when given,
// otherwise the configured fallback identity.
func (a *App) Identity(address, name string) (model.Identity, error) {
	if address == "" {
		address, name = a.cfg.Auth.FallbackAddress, a.cfg.Auth.FallbackName
	}
	if address == "" {
		return model.Identity{}, fmt.Errorf("no identity: pass --as or set auth.fallback_address")
	}
	return model.Identity{Address: model.NormalizeAddress(address), Name: name}, nil
}

// fallbackIdentity is served to unauthenticated requests when enabled.
func (a *App) fallbackIdentity() *model.Identity {
	if !a.cfg.Auth.AllowFallback || a.cfg.Auth.FallbackAddress == "" {
		return nil
	}
	return &model.Identity{
		Address: model.NormalizeAddress(a.cfg.Auth.FallbackAddress),
		Name:    a.cfg.Auth.FallbackName,
	}
}

// SetupKeys generates the age key pair protected by passphrase.
func (a *App) SetupKeys(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// PublicKey returns the encryption recipient, for encryptors that have one.
func (a *App) PublicKey() (string, error) {
	pk, ok := a.encryptor.(interface{ PublicKey() (string, error) })
	if !ok {
		return "", fmt.Errorf("encryptor has no public key")
	}
	return pk.PublicKey()
}

// Unlock returns a decryption context for encrypted media.
func (a *App) Unlock(passphrase string) (creator.DecryptionContext, error) {
	return a.encryptor.Unlock(passphrase)
}

// IssueToken signs a bearer token for the identity.
func (a *App) IssueToken(id model.Identity) (string, error) {
	if a.tokens == nil {
		return "", fmt.Errorf("auth.jwt_secret is not configured")
	}
	return a.tokens.Issue(id)
}

// DeleteContent removes an item the identity owns.
func (a *App) DeleteContent(who model.Identity, id string) error {
	if err := a.persistOperation(id); err != nil {
		return err
	}
	return a.op.Record(a.service.RemoveContent(who, id))
}

// Purchase buys a premium item for who.
func (a *App) Purchase(ctx context.Context, who model.Identity, contentID, idempotencyKey string) (*creator.PaymentResult, error) {
	if err := a.persistOperation(contentID); err != nil {
		return nil, err
	}
	result, err := a.service.PurchaseContent(ctx, creator.PurchaseRequest{
		ContentID:      contentID,
		Buyer:          who,
		IdempotencyKey: idempotencyKey,
	})
	return result, a.op.Record(err)
}

// Tip sends amount from who to the creator.
func (a *App) Tip(ctx context.Context, who model.Identity, creatorAddress string, amount model.Amount, message, idempotencyKey string) (*creator.PaymentResult, error) {
	if err := a.persistOperation(creatorAddress + " " + amount.String()); err != nil {
		return nil, err
	}
	result, err := a.service.TipCreator(ctx, creator.TipRequest{
		CreatorAddress: creatorAddress,
		Amount:         amount,
		Message:        message,
		Sender:         who,
		IdempotencyKey: idempotencyKey,
	})
	return result, a.op.Record(err)
}

// AddMedia uploads a local file to the vault.
func (a *App) AddMedia(who model.Identity, path, contentType string, encrypt bool) (*model.MediaObject, error) {
	if err := a.persistOperation(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, a.op.Record(fmt.Errorf("opening media file: %w", err))
	}
	defer f.Close()

	media, err := a.service.UploadMedia(creator.MediaUpload{
		Uploader:    who,
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Encrypt:     encrypt,
	}, f)
	return media, a.op.Record(err)
}

// GetMedia writes a blob's plaintext to w. dec may be nil for plain media.
func (a *App) GetMedia(hash string, w io.Writer, dec creator.DecryptionContext) (*model.MediaObject, error) {
	return a.service.FetchMedia(hash, w, dec)
}

// Reconcile fails payments left pending longer than the configured timeout.
func (a *App) Reconcile() (int64, error) {
	if err := a.persistOperation(a.cfg.Payments.PendingTimeout.String()); err != nil {
		return 0, err
	}
	n, err := a.service.ReconcilePending(a.pendingTimeout())
	return n, a.op.Record(err)
}

func (a *App) pendingTimeout() time.Duration {
	if d := a.cfg.Payments.PendingTimeout.Duration; d > 0 {
		return d
	}
	return 10 * time.Minute
}

// GetHistory returns the most recent operations.
func (a *App) GetHistory(limit int) ([]*model.Operation, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record and, on sqlite,
// snapshots the DB and uploads it to the vault with version = operation ID.
// Read-only commands just close the database.
func (a *App) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	var tmpPath string
	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}
		if a.cfg.Database.Type == "sqlite" {
			path, err := a.snapshot()
			keep(err)
			tmpPath = path
		}
	}

	if err := a.db.Close(); err != nil {
		keep(fmt.Errorf("closing database: %w", err))
	}

	if tmpPath != "" {
		keep(a.uploadMetadata(tmpPath, a.op.ID))
		os.Remove(tmpPath)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// snapshot copies the database to a temp file. It returns "" without error
// when the database cannot be snapshotted.
func (a *App) snapshot() (string, error) {
	tmpFile, err := os.CreateTemp("", "creatorvault-db-backup-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for db backup: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	if err := a.db.BackupTo(tmpPath); err != nil {
		os.Remove(tmpPath)
		if errors.Is(err, database.ErrBackupUnsupported) {
			a.logger.Debug("database snapshot skipped", "reason", err)
			return "", nil
		}
		return "", fmt.Errorf("backing up database: %w", err)
	}
	return tmpPath, nil
}

// uploadMetadata uploads the snapshot at path to the vault as metadata.
func (a *App) uploadMetadata(path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db backup for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat db backup: %w", err)
	}

	if err := a.vault.PutMetadata(a.cfg.InstanceID, snapshotName, f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading metadata to vault: %w", err)
	}
	return nil
}
