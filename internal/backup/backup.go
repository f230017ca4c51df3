package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mora090410/homework/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
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

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
	Interval   time.Duration // zero disables the scheduled loop
	Keep       int           // how many remote snapshots to retain
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// Manager snapshots the ledger database, encrypts the snapshot, and ships it
// to S3-compatible storage.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	status Status

	db          *sql.DB
	backupStore *store.BackupStore
	client      s3Client

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a backup manager. The manager stays disabled unless the
// S3 credentials and passphrase are all present.
func NewManager(cfg Config, db *sql.DB, bs *store.BackupStore) *Manager {
	m := &Manager{
		cfg:         cfg,
		db:          db,
		backupStore: bs,
		status:      Status{State: StateDisabled},
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether the manager is configured to run backups.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// Start begins the scheduled backup loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.client == nil || m.cfg.Interval <= 0 {
		m.mu.Unlock()
		return
	}
	interval := m.cfg.Interval
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RunNow(ctx); err != nil {
					log.Printf("backup: scheduled run failed: %v", err)
				}
			}
		}
	}()
}

// Stop gracefully stops the backup manager.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Status returns the current backup status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

// RunNow snapshots, encrypts, and uploads the database, then prunes remote
// snapshots beyond the retention count.
func (m *Manager) RunNow(ctx context.Context) (*store.BackupRecord, error) {
	m.mu.RLock()
	client := m.client
	cfg := m.cfg
	m.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("backup not configured")
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	objectKey := fmt.Sprintf("homework/backup-%s.db.enc", timestamp)

	tmpDir := os.TempDir()
	snapshot := filepath.Join(tmpDir, fmt.Sprintf("homework-backup-%s.db", timestamp))
	encFile := filepath.Join(tmpDir, fmt.Sprintf("homework-backup-%s.db.enc", timestamp))
	defer os.Remove(snapshot)
	defer os.Remove(encFile)

	// VACUUM INTO produces a consistent point-in-time copy without blocking
	// writers for the duration of the file copy.
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return nil, m.fail(fmt.Errorf("snapshot database: %w", err))
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, m.fail(err)
	}
	if err := EncryptFile(snapshot, encFile, cfg.Passphrase, salt); err != nil {
		return nil, m.fail(err)
	}

	encData, err := os.Open(encFile)
	if err != nil {
		return nil, m.fail(fmt.Errorf("open encrypted snapshot: %w", err))
	}
	defer encData.Close()

	stat, err := encData.Stat()
	if err != nil {
		return nil, m.fail(fmt.Errorf("stat encrypted snapshot: %w", err))
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(cfg.S3.Bucket),
		Key:           aws.String(objectKey),
		Body:          encData,
		ContentLength: aws.Int64(stat.Size()),
	}); err != nil {
		return nil, m.fail(fmt.Errorf("upload to s3: %w", err))
	}

	record, err := m.backupStore.Record(objectKey, stat.Size())
	if err != nil {
		return nil, m.fail(fmt.Errorf("record backup: %w", err))
	}

	if cfg.Keep > 0 {
		if err := m.prune(ctx, cfg.Keep); err != nil {
			log.Printf("backup: prune failed: %v", err)
		}
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	return record, nil
}

func (m *Manager) fail(err error) error {
	m.setStatus(Status{State: StateError, Error: err.Error()})
	return err
}

func (m *Manager) prune(ctx context.Context, keep int) error {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	m.mu.RUnlock()

	keys, err := m.backupStore.Prune(keep)
	if err != nil {
		return fmt.Errorf("prune records: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			log.Printf("backup: failed to delete object %s: %v", key, err)
		}
	}
	return nil
}
