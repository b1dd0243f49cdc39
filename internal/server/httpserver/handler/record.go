package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/yndnr/recordsvc/internal/core/domain"
)

// maxBodyBytes bounds record request bodies.
const maxBodyBytes = 1 << 20

// handleListRecords handles GET /records.
func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.records.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	items := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, NewRecordResponse(rec))
	}
	h.writeJSON(w, http.StatusOK, items)
}

// handleGetRecord handles GET /records/{id}.
func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	rec, err := h.records.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, NewRecordResponse(rec))
}

// handleCreateRecord handles POST /records.
func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	created, err := h.records.Create(r.Context(), rec)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", h.RecordsPath()+"/"+strconv.FormatInt(created.ID, 10))
	h.writeJSON(w, http.StatusCreated, NewRecordResponse(created))
}

// handleUpdateRecord handles PUT /records/{id}.
func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rec, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	updated, err := h.records.Update(r.Context(), id, rec)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, NewRecordResponse(updated))
}

// handleDeleteRecord handles DELETE /records/{id}.
func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.records.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path segment, writing a 400 when it is not an integer.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		WriteDomainError(w, r, domain.ErrInvalidArgument.WithDetails("id must be an integer, got "+strconv.Quote(raw)))
		return 0, false
	}
	return id, true
}

// decodeRecord reads a RecordRequest body and converts it, writing a 400 on
// malformed JSON or missing amounts.
func (h *Handler) decodeRecord(w http.ResponseWriter, r *http.Request) (*domain.Record, bool) {
	var req RecordRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		details := err.Error()
		if errors.Is(err, io.EOF) {
			details = "request body is empty"
		}
		WriteDomainError(w, r, domain.ErrBadRequest.WithDetails(details))
		return nil, false
	}
	// The body must hold exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		WriteDomainError(w, r, domain.ErrBadRequest.WithDetails("unexpected data after JSON body"))
		return nil, false
	}

	rec, err := req.ToRecord()
	if err != nil {
		WriteDomainError(w, r, err)
		return nil, false
	}
	return rec, true
}
