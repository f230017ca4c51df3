package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/store"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
}

func NewHouseholdHandler(hs *store.HouseholdStore) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs}
}

// Create starts a household seeded with the default pay scale.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	household, err := h.householdStore.CreateDefault(req.Name)
	if err != nil {
		log.Printf("failed to create household: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create household"})
		return
	}

	writeJSON(w, http.StatusCreated, household)
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.householdStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list households"})
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	household, err := h.householdStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get household"})
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "household not found"})
		return
	}

	writeJSON(w, http.StatusOK, household)
}
