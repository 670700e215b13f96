package api

import (
	"github.com/davidvkimball/cardbase/internal/cardservice"
	"github.com/davidvkimball/cardbase/internal/deletion"
	"github.com/davidvkimball/cardbase/internal/models"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// CardListResponse wraps paginated card listings.
type CardListResponse struct {
	Cards []models.CardSummary `json:"cards"`
	Total int                  `json:"total"`
}

// BulkTagsRequest adds and/or removes tags on a batch of notes.
type BulkTagsRequest struct {
	Paths  []string `json:"paths"`
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"remove,omitempty"`
}

// BulkPropertyRequest sets or removes a frontmatter property on a batch of
// notes. A nil Value with Remove=true drops the property.
type BulkPropertyRequest struct {
	Paths  []string `json:"paths"`
	Key    string   `json:"key"`
	Value  any      `json:"value,omitempty"`
	Remove bool     `json:"remove,omitempty"`
}

// BulkDraftRequest toggles the draft flag on a batch of notes.
type BulkDraftRequest struct {
	Paths []string `json:"paths"`
	Draft bool     `json:"draft"`
}

// DeletionRequest asks for a deletion plan or its execution.
type DeletionRequest struct {
	Paths []string `json:"paths"`
}

// DeletionExecuteRequest carries a previously computed plan back for
// execution.
type DeletionExecuteRequest struct {
	Plan deletion.Plan `json:"plan"`
}

// BulkOutcomeResponse is the aggregate result of a bulk edit.
type BulkOutcomeResponse = cardservice.BulkOutcome

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}
