package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

const defaultPageSize = 100

type ContactHandler struct {
	service ports.ContactService
}

func NewContactHandler(service ports.ContactService) *ContactHandler {
	return &ContactHandler{
		service: service,
	}
}

type contactRequest struct {
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Email          string      `json:"email"`
	PhoneNumber    string      `json:"phone_number"`
	Birthday       domain.Date `json:"birthday"`
	AdditionalInfo string      `json:"additional_info"`
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeValidationError(w, "first_name and last_name are required")
		return
	}
	if req.Email == "" {
		writeValidationError(w, "email is required")
		return
	}
	if req.Birthday.IsZero() {
		writeValidationError(w, "birthday is required")
		return
	}

	contact := &domain.Contact{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Birthday:       req.Birthday,
		AdditionalInfo: req.AdditionalInfo,
	}

	created, err := h.service.Create(r.Context(), user.ID, contact)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeValidationError(w, "invalid contact id")
		return
	}

	contact, err := h.service.Get(r.Context(), user.ID, contactID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	limit, offset, err := pagination(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	contacts, err := h.service.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(contacts))
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeValidationError(w, "invalid contact id")
		return
	}

	var patch domain.ContactPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeValidationError(w, "invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), user.ID, contactID, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeValidationError(w, "invalid contact id")
		return
	}

	deleted, err := h.service.Delete(r.Context(), user.ID, contactID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleted)
}

func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeValidationError(w, "query is required")
		return
	}

	limit, offset, err := pagination(r)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	contacts, err := h.service.Search(r.Context(), user.ID, query, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(contacts))
}

func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	contacts, err := h.service.UpcomingBirthdays(r.Context(), user.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(contacts))
}

// pagination reads the skip/limit query parameters with the defaults
// the clients expect: skip 0, limit 100.
func pagination(r *http.Request) (int, int, error) {
	limit := defaultPageSize
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.New("limit must be a non-negative integer")
		}
		limit = n
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.New("skip must be a non-negative integer")
		}
		offset = n
	}

	return limit, offset, nil
}

// nonNil keeps empty result sets serializing as [] instead of null.
func nonNil(contacts []domain.Contact) []domain.Contact {
	if contacts == nil {
		return []domain.Contact{}
	}
	return contacts
}
