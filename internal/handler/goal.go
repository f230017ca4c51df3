package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/mora090410/homework/internal/ledger"
	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/store"
)

type GoalHandler struct {
	goalStore    *store.GoalStore
	profileStore *store.ProfileStore
	ledgerSvc    *ledger.Service
}

func NewGoalHandler(gs *store.GoalStore, ps *store.ProfileStore, svc *ledger.Service) *GoalHandler {
	return &GoalHandler{goalStore: gs, profileStore: ps, ledgerSvc: svc}
}

type goalRequest struct {
	Name        string `json:"name"`
	TargetCents int64  `json:"target_cents"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	profile, err := h.profileStore.GetByID(profileID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get profile"})
		return
	}
	if profile == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.TargetCents <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_cents must be positive"})
		return
	}

	goal, err := h.goalStore.Create(profileID, req.Name, req.TargetCents)
	if err != nil {
		log.Printf("failed to create goal: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create goal"})
		return
	}

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	goals, err := h.goalStore.ListByProfile(profileID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list goals"})
		return
	}
	if goals == nil {
		goals = []model.SavingsGoal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

// Allocate moves spendable money into the goal. A goal that reaches its
// target flips to COMPLETED.
func (h *GoalHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		AmountCents int64 `json:"amount_cents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	goal, err := h.ledgerSvc.TransferToGoal(r.Context(), id, req.AmountCents)
	if err != nil {
		var ve *ledger.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
		case errors.Is(err, store.ErrInsufficientFunds):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "insufficient spendable balance"})
		case errors.Is(err, store.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "goal is not active"})
		default:
			log.Printf("failed to allocate to goal %d: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to allocate to goal"})
		}
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

// Delete removes the goal and returns whatever it held to the profile's
// spendable balance.
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.goalStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get goal"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "goal not found"})
		return
	}

	if err := h.ledgerSvc.ReleaseGoal(r.Context(), id); err != nil {
		log.Printf("failed to release goal %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete goal"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
