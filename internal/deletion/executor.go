package deletion

import (
	"context"
	"log/slog"
	"strings"

	"github.com/davidvkimball/cardbase/internal/storage"
)

// Outcome is the aggregate result of executing a plan: "deleted N of M,
// K errors". Execution never rolls back partial deletions.
type Outcome struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Total returns the number of deletion units the plan contained.
func (o Outcome) Total() int { return o.Deleted + o.Failed }

// Executor applies a computed plan to the vault.
type Executor struct {
	vault  storage.Vault
	logger *slog.Logger
}

// NewExecutor creates an executor over the given vault.
func NewExecutor(vault storage.Vault, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{vault: vault, logger: logger}
}

// Execute removes the plan's files, then attachments, then folders
// (recursively). Each item is independent: a failure is counted and execution
// continues with the remaining items. Files that were already removed as part
// of an earlier item (e.g. living under a deleted folder) count as deleted.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (Outcome, error) {
	var out Outcome

	deleteOne := func(p string, folder bool) {
		if !e.vault.Exists(p) {
			out.Deleted++
			return
		}
		var err error
		if folder {
			err = e.vault.DeleteFolder(p)
		} else {
			err = e.vault.Delete(p)
		}
		if err != nil {
			out.Failed++
			e.logger.Warn("deletion: remove failed",
				slog.String("path", p), slog.String("error", err.Error()))
			return
		}
		out.Deleted++
	}

	for _, p := range plan.Files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		// Files under a folder in the plan go with the folder.
		if underAny(p, plan.Folders) {
			continue
		}
		deleteOne(p, false)
	}
	for _, p := range plan.Attachments {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if underAny(p, plan.Folders) {
			continue
		}
		deleteOne(p, false)
	}
	for _, p := range plan.Folders {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		deleteOne(p, true)
	}
	return out, nil
}

// underAny reports whether p lives inside any of the listed folders.
func underAny(p string, folders []string) bool {
	for _, dir := range folders {
		if strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}
