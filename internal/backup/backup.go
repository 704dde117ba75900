// Package backup pushes encrypted snapshots of the database to S3-compatible
// object storage on a schedule and prunes old ones.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/macrolog/internal/model"
	"github.com/dukerupert/macrolog/internal/store"
)

var (
	ErrDisabled   = errors.New("backups not configured")
	ErrInProgress = errors.New("snapshot already in progress")
)

// objectStore is the subset of the S3 client used here.
type objectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type Config struct {
	S3         S3Config
	Passphrase string
	// Prefix is prepended to every object key.
	Prefix    string
	Interval  time.Duration
	Retention time.Duration
}

// Enabled reports whether storage credentials and a passphrase are set.
func (c Config) Enabled() bool {
	return c.S3.Bucket != "" && c.S3.AccessKey != "" && c.S3.SecretKey != "" && c.Passphrase != ""
}

type Manager struct {
	cfg       Config
	db        *sql.DB
	snapshots *store.SnapshotStore
	client    objectStore
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager returns a Manager. When cfg is not Enabled the manager is inert
// and RunNow returns ErrDisabled.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	var client objectStore
	if cfg.Enabled() {
		client = newS3Client(cfg.S3)
	}
	return newManager(cfg, db, client, logger)
}

func newManager(cfg Config, db *sql.DB, client objectStore, logger *slog.Logger) *Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "macrolog"
	}
	return &Manager{
		cfg:       cfg,
		db:        db,
		snapshots: store.NewSnapshotStore(db),
		client:    client,
		logger:    logger,
	}
}

func newS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Enabled() bool {
	return m.client != nil
}

// Start runs a snapshot and prune every Interval until ctx is cancelled or
// Stop is called.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		m.logger.Info("backups disabled")
		return
	}

	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil {
					m.logger.Error("scheduled snapshot failed", "error", err)
				}
				if n, err := m.Prune(ctx); err != nil {
					m.logger.Error("prune snapshots", "error", err)
				} else if n > 0 {
					m.logger.Info("pruned snapshots", "count", n)
				}
			}
		}
	}()
}

// Stop cancels the schedule and waits for an in-flight run to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunNow takes a consistent copy of the database, encrypts it and uploads
// it. The attempt is recorded whether or not it succeeds.
func (m *Manager) RunNow(ctx context.Context) (*model.Snapshot, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, ErrInProgress
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	now := time.Now().UTC()
	key := fmt.Sprintf("%s/snapshot-%s.db.enc", strings.TrimSuffix(m.cfg.Prefix, "/"), now.Format("2006-01-02T150405.000Z"))

	snap, err := m.snapshots.Create(ctx, key, now)
	if err != nil {
		return nil, err
	}

	size, err := m.upload(ctx, key)
	if err != nil {
		if markErr := m.snapshots.MarkFailed(ctx, snap.ID, err.Error()); markErr != nil {
			m.logger.Error("record snapshot failure", "id", snap.ID, "error", markErr)
		}
		return nil, err
	}

	if err := m.snapshots.MarkCompleted(ctx, snap.ID, size); err != nil {
		return nil, err
	}
	m.logger.Info("snapshot uploaded", "key", key, "bytes", size)
	return m.snapshots.GetByID(ctx, snap.ID)
}

func (m *Manager) upload(ctx context.Context, key string) (int64, error) {
	dir, err := os.MkdirTemp("", "macrolog-snapshot-")
	if err != nil {
		return 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	// VACUUM INTO writes a transactionally consistent copy, WAL included.
	copyPath := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, copyPath); err != nil {
		return 0, fmt.Errorf("copy database: %w", err)
	}

	plaintext, err := os.ReadFile(copyPath)
	if err != nil {
		return 0, fmt.Errorf("read database copy: %w", err)
	}
	sealed, err := Seal(plaintext, m.cfg.Passphrase)
	if err != nil {
		return 0, fmt.Errorf("encrypt: %w", err)
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return 0, fmt.Errorf("upload to s3: %w", err)
	}
	return int64(len(sealed)), nil
}

// Prune deletes snapshots older than Retention from storage and history.
// Object deletions that fail are logged and skipped.
func (m *Manager) Prune(ctx context.Context) (int, error) {
	if !m.Enabled() {
		return 0, nil
	}

	keys, err := m.snapshots.DeleteOlderThan(ctx, time.Now().Add(-m.cfg.Retention))
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("delete snapshot object", "key", key, "error", err)
		}
	}
	return len(keys), nil
}

// History returns the most recent snapshot attempts.
func (m *Manager) History(ctx context.Context, limit int) ([]model.Snapshot, error) {
	return m.snapshots.List(ctx, limit)
}
