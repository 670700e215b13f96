package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

const maxBulkBody = 1 << 20 // 1 MB

// BulkTags handles POST /api/bulk/tags.
func (h *Handler) BulkTags(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBody)
	var req BulkTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("paths are required"))
		return
	}
	if len(req.Add) == 0 && len(req.Remove) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("nothing to do: add or remove is required"))
		return
	}
	outcome := h.svc.BulkEditTags(r.Context(), req.Paths, req.Add, req.Remove)
	writeJSON(w, http.StatusOK, outcome)
}

// BulkProperty handles POST /api/bulk/property.
func (h *Handler) BulkProperty(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBody)
	var req BulkPropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Paths) == 0 || req.Key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("paths and key are required"))
		return
	}
	var outcome BulkOutcomeResponse
	if req.Remove {
		outcome = h.svc.BulkRemoveProperty(r.Context(), req.Paths, req.Key)
	} else {
		outcome = h.svc.BulkSetProperty(r.Context(), req.Paths, req.Key, req.Value)
	}
	writeJSON(w, http.StatusOK, outcome)
}

// BulkDraft handles POST /api/bulk/draft.
func (h *Handler) BulkDraft(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBody)
	var req BulkDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("paths are required"))
		return
	}
	outcome := h.svc.BulkSetDraft(r.Context(), req.Paths, req.Draft)
	writeJSON(w, http.StatusOK, outcome)
}

// PlanDeletion handles POST /api/deletion/plan: computes the deletion impact
// (files, folders, uniquely-referenced attachments) without deleting
// anything.
func (h *Handler) PlanDeletion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBody)
	var req DeletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("paths are required"))
		return
	}
	plan, err := h.svc.PlanDeletion(r.Context(), req.Paths)
	if err != nil {
		slog.Error("plan deletion failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ExecuteDeletion handles POST /api/deletion/execute: applies a previously
// computed plan, best-effort, and reports the aggregate outcome.
func (h *Handler) ExecuteDeletion(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBulkBody)
	var req DeletionExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Plan.Files) == 0 && len(req.Plan.Folders) == 0 && len(req.Plan.Attachments) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("plan is empty"))
		return
	}
	outcome, err := h.svc.ExecuteDeletion(r.Context(), &req.Plan)
	if err != nil {
		slog.Error("execute deletion failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
