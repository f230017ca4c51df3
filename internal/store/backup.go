package store

import (
	"database/sql"
	"fmt"
	"time"
)

// BackupRecord is the metadata kept for one uploaded backup object.
type BackupRecord struct {
	ID        int64     `json:"id"`
	ObjectKey string    `json:"object_key"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

type BackupStore struct {
	db *sql.DB
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db}
}

func (s *BackupStore) Record(objectKey string, sizeBytes int64) (*BackupRecord, error) {
	result, err := s.db.Exec(
		`INSERT INTO backups (object_key, size_bytes) VALUES (?, ?)`,
		objectKey, sizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var r BackupRecord
	err = s.db.QueryRow(
		`SELECT id, object_key, size_bytes, created_at FROM backups WHERE id = ?`, id,
	).Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get backup record: %w", err)
	}
	return &r, nil
}

// List returns backup records newest first.
func (s *BackupStore) List(limit int) ([]BackupRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, object_key, size_bytes, created_at FROM backups ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var records []BackupRecord
	for rows.Next() {
		var r BackupRecord
		if err := rows.Scan(&r.ID, &r.ObjectKey, &r.SizeBytes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Prune removes records beyond keep, returning the object keys whose remote
// objects should be deleted.
func (s *BackupStore) Prune(keep int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT id, object_key FROM backups ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?`,
		keep,
	)
	if err != nil {
		return nil, fmt.Errorf("query stale backups: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var keys []string
	for rows.Next() {
		var id int64
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, fmt.Errorf("scan stale backup: %w", err)
		}
		ids = append(ids, id)
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, err := s.db.Exec(`DELETE FROM backups WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("delete backup record %d: %w", id, err)
		}
	}
	return keys, nil
}
