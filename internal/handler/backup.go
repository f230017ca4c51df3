package handler

import (
	"log"
	"net/http"

	"github.com/mora090410/homework/internal/backup"
	"github.com/mora090410/homework/internal/store"
)

type BackupHandler struct {
	manager     *backup.Manager
	backupStore *store.BackupStore
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore) *BackupHandler {
	return &BackupHandler{manager: m, backupStore: bs}
}

// Run triggers a backup immediately.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "backups are not configured"})
		return
	}

	record, err := h.manager.RunNow(r.Context())
	if err != nil {
		log.Printf("backup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "backup failed"})
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.backupStore.List(50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list backups"})
		return
	}
	if records == nil {
		records = []store.BackupRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
