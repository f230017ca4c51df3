package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/mora090410/homework/internal/decode"
	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
	"github.com/mora090410/homework/internal/payscale"
	"github.com/mora090410/homework/internal/store"
	"github.com/mora090410/homework/internal/task"
)

type TaskHandler struct {
	taskStore    *store.TaskStore
	profileStore *store.ProfileStore
	configStore  *store.GradeConfigStore
}

func NewTaskHandler(ts *store.TaskStore, ps *store.ProfileStore, cs *store.GradeConfigStore) *TaskHandler {
	return &TaskHandler{taskStore: ts, profileStore: ps, configStore: cs}
}

type taskRequest struct {
	HouseholdID     int64   `json:"household_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	BaselineMinutes int     `json:"baseline_minutes"`
	Status          string  `json:"status"`
	AssigneeID      *int64  `json:"assignee_id"`
	ValueCents      *int64  `json:"value_cents"`
	Multiplier      float64 `json:"multiplier"`
	BonusCents      int64   `json:"bonus_cents"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.HouseholdID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "household_id is required"})
		return
	}
	if req.BaselineMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "baseline_minutes must not be negative"})
		return
	}
	if msg, ok := validateValuation(&req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	status := model.TaskOpen
	if strings.TrimSpace(req.Status) != "" {
		status, _ = decode.TaskStatus(req.Status)
		switch status {
		case model.TaskDraft, model.TaskOpen, model.TaskAssigned:
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "new tasks must be DRAFT, OPEN, or ASSIGNED"})
			return
		}
	}

	if req.AssigneeID != nil {
		profile, err := h.profileStore.GetByID(*req.AssigneeID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check assignee"})
			return
		}
		if profile == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assignee not found"})
			return
		}
		// A task created with an assignee starts directly in ASSIGNED.
		if status == model.TaskOpen {
			status = model.TaskAssigned
		}
	} else if status == model.TaskAssigned {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assignee_id is required for ASSIGNED tasks"})
		return
	}

	created, err := h.taskStore.Create(store.CreateParams{
		HouseholdID:     req.HouseholdID,
		Name:            req.Name,
		Description:     req.Description,
		BaselineMinutes: req.BaselineMinutes,
		Status:          status,
		AssigneeID:      req.AssigneeID,
		ValueCents:      req.ValueCents,
		Multiplier:      req.Multiplier,
		BonusCents:      req.BonusCents,
	})
	if err != nil {
		log.Printf("failed to create task: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseQueryID(r, "household_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "household_id query parameter is required"})
		return
	}

	var tasks []model.Task
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status, ok := decode.TaskStatus(statusStr)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
			return
		}
		tasks, err = h.taskStore.ListByStatus(householdID, status)
	} else {
		tasks, err = h.taskStore.ListActive(householdID)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.fetchTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.BaselineMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "baseline_minutes must not be negative"})
		return
	}
	if msg, ok := validateValuation(&req); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	updated, err := h.taskStore.Update(existing.ID, req.Name, req.Description, req.BaselineMinutes, req.ValueCents, req.Multiplier, req.BonusCents)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	if err := h.taskStore.SoftDelete(existing.ID); err != nil {
		var te *task.TransitionError
		if errors.As(err, &te) || errors.Is(err, store.ErrStatusConflict) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "paid tasks cannot be deleted"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Claim(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	var req struct {
		ProfileID int64 `json:"profile_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	profile, err := h.profileStore.GetByID(req.ProfileID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check profile"})
		return
	}
	if profile == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "profile not found"})
		return
	}

	claimed, err := h.taskStore.Claim(existing.ID, req.ProfileID)
	if err != nil {
		var te *task.TransitionError
		switch {
		case errors.Is(err, store.ErrAlreadyClaimed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "task already claimed"})
			return
		case errors.As(err, &te):
			writeJSON(w, http.StatusConflict, map[string]string{"error": te.Error()})
			return
		}
		log.Printf("failed to claim task %d: %v", existing.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to claim task"})
		return
	}

	writeJSON(w, http.StatusOK, claimed)
}

// Publish moves a DRAFT task into the open pool where it can be claimed.
func (h *TaskHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "publish", func(id int64) error {
		return h.taskStore.UpdateStatus(id, model.TaskDraft, model.TaskOpen)
	})
}

func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "submit", func(id int64) error {
		return h.taskStore.Submit(id)
	})
}

func (h *TaskHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve", func(id int64) error {
		return h.taskStore.Approve(id)
	})
}

func (h *TaskHandler) UndoApproval(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "undo approval for", func(id int64) error {
		return h.taskStore.UndoApproval(id)
	})
}

func (h *TaskHandler) Reject(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.taskStore.Reject(existing.ID, req.Comment); err != nil {
		var te *task.TransitionError
		switch {
		case errors.Is(err, store.ErrEmptyRejectionComment):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rejection comment is required"})
		case errors.As(err, &te), errors.Is(err, store.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "task is not awaiting approval"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reject task"})
		}
		return
	}

	updated, err := h.taskStore.GetByID(existing.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Pay settles an approved task: it prices the task against the assignee's
// current pay scale, posts the earning, and marks the task PAID. Paying a
// task that is already PAID is a no-op.
func (h *TaskHandler) Pay(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	if existing.AssigneeID == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "task has no assignee"})
		return
	}

	profile, err := h.profileStore.GetByID(*existing.AssigneeID)
	if err != nil || profile == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get assignee"})
		return
	}

	rates, err := resolveProfileRates(h.configStore, profile)
	if err != nil {
		log.Printf("failed to resolve rates for profile %d: %v", profile.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to resolve pay scale"})
		return
	}

	hourlyRateCents := money.DollarsToCents(payscale.HourlyRate(profile.Subjects, rates))
	amountCents := task.EffectiveValueCents(*existing, hourlyRateCents)
	memo := fmt.Sprintf("Payment for %s", existing.Name)

	txn, err := h.taskStore.MarkPaid(existing.ID, profile.ID, amountCents, memo)
	if err != nil {
		var te *task.TransitionError
		switch {
		case errors.As(err, &te):
			writeJSON(w, http.StatusConflict, map[string]string{"error": te.Error()})
			return
		case errors.Is(err, store.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "task is not awaiting payment"})
			return
		case errors.Is(err, store.ErrNonPositiveAmount):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment amount must be positive"})
			return
		}
		log.Printf("failed to pay task %d: %v", existing.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to pay task"})
		return
	}

	updated, err := h.taskStore.GetByID(existing.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task":        updated,
		"transaction": txn,
	})
}

// validateValuation rejects valuation fields that could price a task at a
// negative amount. Earnings only ever credit the child.
func validateValuation(req *taskRequest) (string, bool) {
	if req.ValueCents != nil && *req.ValueCents < 0 {
		return "value_cents must not be negative", false
	}
	if req.BonusCents < 0 {
		return "bonus_cents must not be negative", false
	}
	if req.Multiplier < 0 {
		return "multiplier must not be negative", false
	}
	return "", true
}

func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, verb string, fn func(id int64) error) {
	existing, ok := h.fetchTask(w, r)
	if !ok {
		return
	}

	if err := fn(existing.ID); err != nil {
		var te *task.TransitionError
		if errors.As(err, &te) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": te.Error()})
			return
		}
		if errors.Is(err, store.ErrStatusConflict) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": fmt.Sprintf("cannot %s task in status %s", verb, existing.Status)})
			return
		}
		log.Printf("failed to %s task %d: %v", verb, existing.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	updated, err := h.taskStore.GetByID(existing.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) fetchTask(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil, false
	}

	t, err := h.taskStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return nil, false
	}
	if t == nil || t.Status == model.TaskDeleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return nil, false
	}
	return t, true
}
