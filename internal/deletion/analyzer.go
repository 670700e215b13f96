// Package deletion computes and executes deletion plans: given a batch of
// target notes, it determines the full set of files, parent folders, and
// uniquely-referenced attachments that should be removed.
package deletion

import (
	"context"
	"log/slog"
	"path"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/davidvkimball/cardbase/internal/parser"
	"github.com/davidvkimball/cardbase/internal/storage"
)

// Origin of an attachment reference.
const (
	OriginFrontmatter = "frontmatter"
	OriginEmbed       = "embed"
)

// Config controls plan computation.
type Config struct {
	// IndexFilename is the extension-less basename (e.g. "index") that marks
	// a note as its folder's index note.
	IndexFilename string
	// DeleteParentFolder treats a target whose basename matches
	// IndexFilename as a folder deletion unit.
	DeleteParentFolder bool
	// DeleteUniqueAttachments includes attachments referenced only by notes
	// being deleted.
	DeleteUniqueAttachments bool
	// ImageProperties lists the frontmatter property names scanned for
	// attachment references.
	ImageProperties []string
}

// Plan is the computed impact of a deletion batch. All three sets are
// deduplicated and sorted; a Plan is never mutated after construction.
type Plan struct {
	Files       []string `json:"files"`
	Folders     []string `json:"folders"`
	Attachments []string `json:"attachments"`
}

// Reference is a resolved pointer from a note to a non-Markdown file.
type Reference struct {
	SourceNote string
	Target     string
	Origin     string
}

// Analyzer computes deletion plans over a vault.
type Analyzer struct {
	vault  storage.Vault
	cfg    Config
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(vault storage.Vault, cfg Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{vault: vault, cfg: cfg, logger: logger}
}

// Plan computes the deletion impact for targetPaths. The plan is best-effort
// over currently-resolvable files: targets that do not exist are skipped
// silently, and notes that cannot be read during the uniqueness scan simply
// do not contribute to it.
func (a *Analyzer) Plan(ctx context.Context, targetPaths []string) (*Plan, error) {
	files := make(map[string]struct{})
	folders := make(map[string]struct{})

	for _, target := range targetPaths {
		target = path.Clean(strings.TrimSpace(target))
		if target == "." || target == "" || !a.vault.Exists(target) {
			continue
		}
		if a.cfg.DeleteParentFolder && a.isIndexNote(target) {
			folder := path.Dir(target)
			if folder == "." || folder == "/" {
				// Index note at the vault root: the root is never a
				// deletion unit, fall back to deleting the file alone.
				files[target] = struct{}{}
				continue
			}
			if _, dup := folders[folder]; !dup {
				folders[folder] = struct{}{}
				contained, err := a.vault.ListFolder(folder)
				if err != nil {
					a.logger.Warn("deletion: list folder failed",
						slog.String("folder", folder), slog.String("error", err.Error()))
					continue
				}
				for _, p := range contained {
					if strings.HasSuffix(p, ".md") {
						files[p] = struct{}{}
					}
				}
			}
			files[target] = struct{}{}
			continue
		}
		files[target] = struct{}{}
	}

	plan := &Plan{
		Files:   sortedKeys(files),
		Folders: sortedKeys(folders),
	}

	if a.cfg.DeleteUniqueAttachments {
		candidates := a.collectAttachments(plan.Files, files)
		unique, err := a.filterUnique(ctx, candidates, files)
		if err != nil {
			return nil, err
		}
		plan.Attachments = unique
	}
	if plan.Attachments == nil {
		plan.Attachments = []string{}
	}
	return plan, nil
}

// isIndexNote reports whether the note's extension-less basename matches the
// configured index filename.
func (a *Analyzer) isIndexNote(notePath string) bool {
	if a.cfg.IndexFilename == "" {
		return false
	}
	base := path.Base(notePath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return stem == a.cfg.IndexFilename
}

// collectAttachments gathers the deduplicated attachment references of every
// note scheduled for deletion: configured frontmatter image properties plus
// body embeds, resolved to vault-local paths. External URLs and Markdown
// targets are excluded.
func (a *Analyzer) collectAttachments(notes []string, deleting map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(ref Reference) {
		if _, dup := seen[ref.Target]; dup {
			return
		}
		seen[ref.Target] = struct{}{}
		out = append(out, ref.Target)
	}

	for _, notePath := range notes {
		for _, ref := range a.references(notePath) {
			if _, scheduled := deleting[ref.Target]; scheduled {
				continue
			}
			add(ref)
		}
	}
	return out
}

// references returns the resolved attachment references of one note.
func (a *Analyzer) references(notePath string) []Reference {
	data, err := a.vault.Read(notePath)
	if err != nil {
		return nil
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil
	}

	var refs []Reference
	appendRef := func(raw, origin string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || isExternalURL(raw) {
			return
		}
		resolved := a.vault.Resolve(raw, notePath)
		if resolved == "" || strings.HasSuffix(resolved, ".md") {
			return
		}
		refs = append(refs, Reference{SourceNote: notePath, Target: resolved, Origin: origin})
	}

	for _, prop := range a.cfg.ImageProperties {
		raw, ok := res.Frontmatter[prop]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			appendRef(v, OriginFrontmatter)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					appendRef(s, OriginFrontmatter)
				}
			}
		}
	}
	for _, embed := range res.Embeds {
		appendRef(embed, OriginEmbed)
	}
	return refs
}

// filterUnique keeps only the candidates with zero textual occurrences in any
// note outside the deletion set. A candidate referenced by even one surviving
// note is excluded: false negatives on cleanup are acceptable, false
// deletions are not. Survivor notes are scanned concurrently; a note that
// fails to read is treated as "could not be checked" and skipped.
func (a *Analyzer) filterUnique(ctx context.Context, candidates []string, deleting map[string]struct{}) ([]string, error) {
	if len(candidates) == 0 {
		return []string{}, nil
	}

	metas, err := a.vault.List("")
	if err != nil {
		return nil, err
	}

	needles := make([][]string, len(candidates))
	for i, c := range candidates {
		needles[i] = referenceNeedles(c)
	}

	var mu sync.Mutex
	referenced := make(map[int]struct{})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, meta := range metas {
		if _, scheduled := deleting[meta.Path]; scheduled {
			continue
		}
		notePath := meta.Path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			data, readErr := a.vault.Read(notePath)
			if readErr != nil {
				a.logger.Warn("deletion: uniqueness scan read failed",
					slog.String("path", notePath), slog.String("error", readErr.Error()))
				return nil
			}
			text := string(data)
			for i := range candidates {
				if containsAny(text, needles[i]) {
					mu.Lock()
					referenced[i] = struct{}{}
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var unique []string
	for i, c := range candidates {
		if _, ok := referenced[i]; !ok {
			unique = append(unique, c)
		}
	}
	sort.Strings(unique)
	if unique == nil {
		unique = []string{}
	}
	return unique, nil
}

// referenceNeedles returns the substrings whose presence in a note counts as
// a reference to the attachment: its full path, filename, basename, and the
// common wrap forms.
func referenceNeedles(attachment string) []string {
	filename := path.Base(attachment)
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	return []string{
		attachment,
		filename,
		stem,
		"![[" + filename + "]]",
		"[[" + filename + "]]",
		"(" + filename + ")",
		"(" + attachment + ")",
	}
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func isExternalURL(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "data:")
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
