package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rollcall/gradebook/internal/record"
)

// CreateRecordRequest is the body of POST /records.
type CreateRecordRequest struct {
	ID     string            `json:"id" validate:"required,max=64"`
	Name   string            `json:"name" validate:"required,max=255"`
	Fields map[string]string `json:"fields" validate:"required,dive,max=255"`
}

// UpdateRecordRequest is the body of PUT /records/{id}. All members are
// optional; an empty body leaves the record unchanged.
type UpdateRecordRequest struct {
	Name   *string           `json:"name,omitempty" validate:"omitempty,max=255"`
	Fields map[string]string `json:"fields,omitempty" validate:"omitempty,dive,max=255"`
}

// recordResponse is the JSON shape of one record.
type recordResponse struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

func toResponse(rec record.Record) recordResponse {
	return recordResponse{ID: rec.ID, Name: rec.Name, Fields: rec.Fields}
}

// ListRecords handles GET /records.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	set, err := h.store.List()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	out := make([]recordResponse, 0, len(set))
	for i := range set {
		out = append(out, toResponse(set[i]))
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"records": out})
}

// CreateRecord handles POST /records.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondBadRequest(w, "validation error: "+err.Error())
		return
	}

	rec := record.Record{ID: req.ID, Name: req.Name, Fields: req.Fields}
	if err := h.store.Create(rec); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]string{
		"message": "record added successfully",
		"id":      req.ID,
	})
}

// GetRecord handles GET /records/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.Get(id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(rec))
}

// UpdateRecord handles PUT /records/{id}.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondBadRequest(w, "validation error: "+err.Error())
		return
	}

	fields := make(map[string]string, len(req.Fields)+1)
	for k, v := range req.Fields {
		fields[k] = v
	}
	if req.Name != nil {
		fields[h.store.Schema().NameField] = *req.Name
	}

	rec, err := h.store.Update(id, fields)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(rec))
}

// DeleteRecord handles DELETE /records/{id}. Deleting an absent identifier
// is NotFound, every time.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(id); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "record deleted successfully",
	})
}
