package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/mora090410/homework/internal/decode"
	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/store"
)

type GradeConfigHandler struct {
	configStore  *store.GradeConfigStore
	profileStore *store.ProfileStore
}

func NewGradeConfigHandler(cs *store.GradeConfigStore, ps *store.ProfileStore) *GradeConfigHandler {
	return &GradeConfigHandler{configStore: cs, profileStore: ps}
}

type gradeConfigRequest struct {
	Grade      string `json:"grade"`
	ValueCents int64  `json:"value_cents"`
}

func (h *GradeConfigHandler) ListHousehold(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	configs, err := h.configStore.ListHousehold(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list grade configs"})
		return
	}
	if configs == nil {
		configs = []model.GradeConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *GradeConfigHandler) SetHousehold(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	grade, valueCents, ok := h.decodeConfig(w, r)
	if !ok {
		return
	}

	if err := h.configStore.SetHousehold(id, grade, valueCents); err != nil {
		log.Printf("failed to set household grade config: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set grade config"})
		return
	}

	configs, err := h.configStore.ListHousehold(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list grade configs"})
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *GradeConfigHandler) ListProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	configs, err := h.configStore.ListProfile(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list grade configs"})
		return
	}
	if configs == nil {
		configs = []model.GradeConfig{}
	}
	writeJSON(w, http.StatusOK, configs)
}

// SetProfile writes a per-profile override for one grade. The override wins
// over the household value when the profile's rate is resolved.
func (h *GradeConfigHandler) SetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	profile, err := h.profileStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get profile"})
		return
	}
	if profile == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}

	grade, valueCents, ok := h.decodeConfig(w, r)
	if !ok {
		return
	}

	if err := h.configStore.SetProfile(profile.HouseholdID, id, grade, valueCents); err != nil {
		log.Printf("failed to set profile grade config: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set grade config"})
		return
	}

	configs, err := h.configStore.ListProfile(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list grade configs"})
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *GradeConfigHandler) ClearProfile(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.configStore.ClearProfile(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear grade configs"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GradeConfigHandler) decodeConfig(w http.ResponseWriter, r *http.Request) (model.Grade, int64, bool) {
	var req gradeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return "", 0, false
	}

	grade, ok := decode.Grade(req.Grade)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid grade"})
		return "", 0, false
	}
	if req.ValueCents < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value_cents must not be negative"})
		return "", 0, false
	}
	return grade, req.ValueCents, true
}
