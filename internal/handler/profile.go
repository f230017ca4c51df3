package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/mora090410/homework/internal/decode"
	"github.com/mora090410/homework/internal/model"
	"github.com/mora090410/homework/internal/money"
	"github.com/mora090410/homework/internal/payscale"
	"github.com/mora090410/homework/internal/store"
)

type ProfileHandler struct {
	profileStore *store.ProfileStore
	configStore  *store.GradeConfigStore
}

func NewProfileHandler(ps *store.ProfileStore, cs *store.GradeConfigStore) *ProfileHandler {
	return &ProfileHandler{profileStore: ps, configStore: cs}
}

type profileRequest struct {
	HouseholdID int64  `json:"household_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
}

func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
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

	role := model.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	switch role {
	case model.RoleAdmin, model.RoleChild, model.RoleMember:
	case "":
		role = model.RoleMember
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	profile, err := h.profileStore.Create(req.HouseholdID, req.Name, role)
	if err != nil {
		log.Printf("failed to create profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create profile"})
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	householdID, err := parseQueryID(r, "household_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "household_id query parameter is required"})
		return
	}

	profiles, err := h.profileStore.List(householdID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list profiles"})
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.profileStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get profile"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = existing.Name
	}
	role := existing.Role
	if strings.TrimSpace(req.Role) != "" {
		role = model.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
		switch role {
		case model.RoleAdmin, model.RoleChild, model.RoleMember:
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
			return
		}
	}

	profile, err := h.profileStore.Update(id, req.Name, role)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.profileStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get profile"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}

	if err := h.profileStore.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete profile"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type subjectRequest struct {
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

func (h *ProfileHandler) AddSubject(w http.ResponseWriter, r *http.Request) {
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

	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	grade, _ := decode.Grade(req.Grade)

	subject, err := h.profileStore.AddSubject(id, req.Name, grade)
	if err != nil {
		log.Printf("failed to add subject: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add subject"})
		return
	}

	writeJSON(w, http.StatusCreated, subject)
}

func (h *ProfileHandler) UpdateSubjectGrade(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseInt(r.PathValue("subject_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subject_id"})
		return
	}

	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	grade, ok := decode.Grade(req.Grade)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid grade"})
		return
	}

	subject, err := h.profileStore.UpdateSubjectGrade(subjectID, grade)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update subject"})
		return
	}
	if subject == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "subject not found"})
		return
	}

	writeJSON(w, http.StatusOK, subject)
}

func (h *ProfileHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseInt(r.PathValue("subject_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid subject_id"})
		return
	}

	if err := h.profileStore.DeleteSubject(subjectID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete subject"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Rate reports the profile's current hourly rate under the pay scale that
// applies to it (profile overrides win over household values).
func (h *ProfileHandler) Rate(w http.ResponseWriter, r *http.Request) {
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

	rates, err := resolveProfileRates(h.configStore, profile)
	if err != nil {
		log.Printf("failed to resolve rates: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to resolve pay scale"})
		return
	}

	rateCents := money.DollarsToCents(payscale.HourlyRate(profile.Subjects, rates))
	writeJSON(w, http.StatusOK, map[string]any{
		"profile_id":        profile.ID,
		"hourly_rate":       money.CentsToDollars(rateCents),
		"hourly_rate_cents": rateCents,
		"rates":             rates,
	})
}

// resolveProfileRates layers the profile's grade overrides on top of its
// household's configured values, falling back to the default pay scale.
func resolveProfileRates(cs *store.GradeConfigStore, p *model.Profile) (map[model.Grade]float64, error) {
	household, err := cs.ListHousehold(p.HouseholdID)
	if err != nil {
		return nil, err
	}
	overrides, err := cs.ListProfile(p.ID)
	if err != nil {
		return nil, err
	}
	rates := payscale.ResolveRates(household, payscale.DefaultRates())
	return payscale.ResolveRates(overrides, rates), nil
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func parseQueryID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
