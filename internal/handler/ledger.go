package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/mora090410/homework/internal/ledger"
	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/store"
)

type LedgerHandler struct {
	ledgerSvc    *ledger.Service
	ledgerStore  *store.LedgerStore
	profileStore *store.ProfileStore
}

func NewLedgerHandler(svc *ledger.Service, ls *store.LedgerStore, ps *store.ProfileStore) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: svc, ledgerStore: ls, profileStore: ps}
}

func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.fetchProfile(w, r)
	if !ok {
		return
	}

	txns, err := h.ledgerStore.ListByProfile(profile.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list transactions"})
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.fetchProfile(w, r)
	if !ok {
		return
	}

	balances, err := h.ledgerSvc.Balances(profile.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get balance"})
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

// CheckBalance verifies the profile's stored balance against the sum of its
// applied ledger entries.
func (h *LedgerHandler) CheckBalance(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.fetchProfile(w, r)
	if !ok {
		return
	}

	result, err := h.ledgerSvc.CheckBalance(profile.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check balance"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type amountRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Memo        string `json:"memo"`
}

func (h *LedgerHandler) RecordAdvance(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, func(profileID int64, req amountRequest) (*model.Transaction, error) {
		return h.ledgerSvc.RecordAdvance(r.Context(), profileID, req.AmountCents, req.Memo)
	})
}

func (h *LedgerHandler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, func(profileID int64, req amountRequest) (*model.Transaction, error) {
		return h.ledgerSvc.RecordAdjustment(r.Context(), profileID, req.AmountCents, req.Memo)
	})
}

func (h *LedgerHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, func(profileID int64, req amountRequest) (*model.Transaction, error) {
		return h.ledgerSvc.RequestWithdrawal(r.Context(), profileID, req.AmountCents, req.Memo)
	})
}

func (h *LedgerHandler) record(w http.ResponseWriter, r *http.Request, fn func(profileID int64, req amountRequest) (*model.Transaction, error)) {
	profile, ok := h.fetchProfile(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Memo = strings.TrimSpace(req.Memo)

	txn, err := fn(profile.ID, req)
	if err != nil {
		var ve *ledger.ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
		case errors.Is(err, store.ErrInsufficientFunds):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "insufficient spendable balance"})
		default:
			log.Printf("failed to record transaction for profile %d: %v", profile.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record transaction"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

func (h *LedgerHandler) ConfirmWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.settleWithdrawal(w, r, h.ledgerSvc.ConfirmWithdrawalPayout)
}

func (h *LedgerHandler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.settleWithdrawal(w, r, h.ledgerSvc.RejectWithdrawal)
}

func (h *LedgerHandler) settleWithdrawal(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, transactionID int64) (*model.Transaction, error)) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	txn, err := fn(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrStatusConflict) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "withdrawal is not pending"})
			return
		}
		log.Printf("failed to settle withdrawal %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to settle withdrawal"})
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

func (h *LedgerHandler) fetchProfile(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	profile, err := h.profileStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get profile"})
		return nil, false
	}
	if profile == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return nil, false
	}
	return profile, true
}
