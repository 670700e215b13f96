// Package cardservice coordinates the vault, the card index, the preview
// cache, and the deletion analyzer behind one service used by the HTTP API
// and the MCP server.
package cardservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/davidvkimball/cardbase/internal/apperr"
	"github.com/davidvkimball/cardbase/internal/checksum"
	"github.com/davidvkimball/cardbase/internal/deletion"
	"github.com/davidvkimball/cardbase/internal/frontmatter"
	"github.com/davidvkimball/cardbase/internal/index"
	"github.com/davidvkimball/cardbase/internal/models"
	"github.com/davidvkimball/cardbase/internal/parser"
	"github.com/davidvkimball/cardbase/internal/preview"
	"github.com/davidvkimball/cardbase/internal/storage"
)

// Config holds the card-shaping settings.
type Config struct {
	// ImageProperties lists frontmatter property names checked (in order)
	// for a card's cover image.
	ImageProperties []string
	// DescriptionProperty, when set and present on a note, supplies the
	// preview text instead of the note body.
	DescriptionProperty string
	// Deletion configures the impact analyzer.
	Deletion deletion.Config
}

// BulkOutcome is the aggregate result of a bulk edit: per-item failures are
// counted, never fatal.
type BulkOutcome struct {
	Updated     int      `json:"updated"`
	Failed      int      `json:"failed"`
	FailedPaths []string `json:"failed_paths,omitempty"`
}

// Service coordinates storage, index, previews, and deletion.
type Service struct {
	store    storage.Vault
	db       index.CardIndex
	previews *preview.Cache
	analyzer *deletion.Analyzer
	executor *deletion.Executor
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a new card service.
func NewService(store storage.Vault, db index.CardIndex, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Deletion.ImageProperties = cfg.ImageProperties
	return &Service{
		store:    store,
		db:       db,
		previews: preview.NewCache(),
		analyzer: deletion.NewAnalyzer(store, cfg.Deletion, logger),
		executor: deletion.NewExecutor(store, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// GetCard reads a note from storage and builds its full card.
func (s *Service) GetCard(_ context.Context, notePath string) (*models.Card, error) {
	data, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildCard(notePath, data)
}

// ListCards returns one page of card summaries plus the total matching count.
func (s *Service) ListCards(_ context.Context, q index.ListQuery) ([]models.CardSummary, int, error) {
	rows, total, err := s.db.ListCards(q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.CardSummary, len(rows))
	for i, r := range rows {
		items[i] = models.CardSummary{
			Path:      r.Path,
			Title:     r.Title,
			Image:     r.Image,
			Tags:      nonNilSlice(r.Tags),
			Draft:     r.Draft,
			Checksum:  r.Checksum,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(ctx context.Context, notePath string, content []byte) (*models.Card, error) {
	if _, err := s.store.Read(notePath); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(notePath, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(notePath, content); err != nil {
		return nil, err
	}
	return s.buildCard(notePath, content)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(ctx context.Context, notePath string, content []byte, ifMatch string) (*models.Card, error) {
	existing, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(notePath, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(notePath, content); err != nil {
		return nil, err
	}
	return s.buildCard(notePath, content)
}

// DeleteNote removes a single note from storage, index, and preview cache.
func (s *Service) DeleteNote(_ context.Context, notePath string) error {
	if err := s.store.Delete(notePath); err != nil {
		return err
	}
	s.previews.Invalidate(notePath)
	return s.db.DeleteCard(notePath)
}

// BulkEditTags adds and removes tags on every listed note. Per-note failures
// are counted and the edit continues with the remaining notes.
func (s *Service) BulkEditTags(ctx context.Context, paths, add, remove []string) BulkOutcome {
	return s.bulkEdit(ctx, paths, func(fm map[string]any) {
		frontmatter.AddTags(fm, add)
		frontmatter.RemoveTags(fm, remove)
	})
}

// BulkSetProperty assigns a frontmatter property on every listed note.
func (s *Service) BulkSetProperty(ctx context.Context, paths []string, key string, value any) BulkOutcome {
	return s.bulkEdit(ctx, paths, func(fm map[string]any) {
		frontmatter.SetProperty(fm, key, value)
	})
}

// BulkRemoveProperty drops a frontmatter property from every listed note.
func (s *Service) BulkRemoveProperty(ctx context.Context, paths []string, key string) BulkOutcome {
	return s.bulkEdit(ctx, paths, func(fm map[string]any) {
		frontmatter.RemoveProperty(fm, key)
	})
}

// BulkSetDraft toggles the draft flag on every listed note.
func (s *Service) BulkSetDraft(ctx context.Context, paths []string, draft bool) BulkOutcome {
	return s.bulkEdit(ctx, paths, func(fm map[string]any) {
		frontmatter.SetDraft(fm, draft)
	})
}

func (s *Service) bulkEdit(_ context.Context, paths []string, fn func(fm map[string]any)) BulkOutcome {
	var out BulkOutcome
	fail := func(p string, err error) {
		out.Failed++
		out.FailedPaths = append(out.FailedPaths, p)
		s.logger.Warn("bulk edit failed", slog.String("path", p), slog.String("error", err.Error()))
	}

	for _, p := range dedupe(paths) {
		data, err := s.store.Read(p)
		if err != nil {
			fail(p, err)
			continue
		}
		updated, err := frontmatter.Update(data, fn)
		if err != nil {
			fail(p, err)
			continue
		}
		if err := s.store.Write(p, updated); err != nil {
			fail(p, err)
			continue
		}
		if err := s.IndexFile(p, updated); err != nil {
			fail(p, err)
			continue
		}
		s.previews.Invalidate(p)
		out.Updated++
	}
	return out
}

// PlanDeletion computes the deletion impact for the given note paths.
func (s *Service) PlanDeletion(ctx context.Context, paths []string) (*deletion.Plan, error) {
	return s.analyzer.Plan(ctx, paths)
}

// ExecuteDeletion applies a previously computed plan and removes the deleted
// notes from the index and preview cache.
func (s *Service) ExecuteDeletion(ctx context.Context, plan *deletion.Plan) (deletion.Outcome, error) {
	outcome, err := s.executor.Execute(ctx, plan)
	for _, p := range plan.Files {
		s.previews.Invalidate(p)
		if delErr := s.db.DeleteCard(p); delErr != nil {
			s.logger.Warn("deletion: index cleanup failed",
				slog.String("path", p), slog.String("error", delErr.Error()))
		}
	}
	return outcome, err
}

// Preview returns the sanitized preview text for a note, using the cache
// keyed by content checksum.
func (s *Service) Preview(notePath string) (string, error) {
	data, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	return s.previewFor(notePath, data), nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// AttachmentUsage returns the notes whose body embeds the given target.
func (s *Service) AttachmentUsage(_ context.Context, target string) ([]string, error) {
	sources, err := s.db.EmbedSources(target)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(sources), nil
}

// InvalidatePreview drops the cached preview for a path (watcher hook).
func (s *Service) InvalidatePreview(notePath string) {
	s.previews.Invalidate(notePath)
}

// IndexFile parses data and upserts the resulting card. Exported so that
// sync and the watcher can reuse it.
func (s *Service) IndexFile(notePath string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	embeds := make([]string, 0, len(res.Embeds))
	for _, e := range res.Embeds {
		if resolved := s.store.Resolve(e, notePath); resolved != "" {
			embeds = append(embeds, resolved)
		}
	}
	return s.db.UpsertCard(index.CardRow{
		Path:      notePath,
		Title:     titleFor(res, notePath),
		Checksum:  checksum.Sum(data),
		Tags:      nonNilSlice(res.Tags),
		Draft:     frontmatter.IsDraft(res.Frontmatter),
		Image:     s.cardImage(res, notePath),
		UpdatedAt: time.Now(),
	}, res.Body, embeds)
}

// buildCard constructs a full Card from raw data without re-reading the file.
func (s *Service) buildCard(notePath string, data []byte) (*models.Card, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &models.Card{
		Path:        notePath,
		Title:       titleFor(res, notePath),
		Preview:     s.previewFor(notePath, data),
		Image:       s.cardImage(res, notePath),
		Tags:        nonNilSlice(res.Tags),
		Draft:       frontmatter.IsDraft(res.Frontmatter),
		Frontmatter: res.Frontmatter,
		Checksum:    checksum.Sum(data),
		UpdatedAt:   time.Now(),
	}, nil
}

// previewFor computes (or returns the cached) preview text for a note.
// A configured description property wins over the note body.
func (s *Service) previewFor(notePath string, data []byte) string {
	cs := checksum.Sum(data)
	if text, ok := s.previews.Get(notePath, cs); ok {
		return text
	}

	res, err := parser.Parse(data)
	if err != nil {
		return ""
	}

	source := string(data)
	if s.cfg.DescriptionProperty != "" {
		if v, ok := res.Frontmatter[s.cfg.DescriptionProperty]; ok {
			if desc, ok := v.(string); ok && strings.TrimSpace(desc) != "" {
				source = desc
			}
		}
	}

	text := preview.Sanitize(source, preview.Options{
		Title:    res.Title,
		Filename: stem(notePath),
	})
	s.previews.Put(notePath, cs, text)
	return text
}

// cardImage picks the card's cover image: the first configured frontmatter
// image property that resolves (external URLs pass through), otherwise the
// first body embed that resolves to an image file.
func (s *Service) cardImage(res *parser.Result, notePath string) string {
	pick := func(raw string) string {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return ""
		}
		if strings.Contains(raw, "://") {
			return raw
		}
		resolved := s.store.Resolve(raw, notePath)
		if resolved != "" && isImagePath(resolved) {
			return resolved
		}
		return ""
	}

	for _, prop := range s.cfg.ImageProperties {
		v, ok := res.Frontmatter[prop]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if img := pick(t); img != "" {
				return img
			}
		case []interface{}:
			for _, item := range t {
				if str, ok := item.(string); ok {
					if img := pick(str); img != "" {
						return img
					}
				}
			}
		}
	}

	for _, e := range res.Embeds {
		if img := pick(e); img != "" {
			return img
		}
	}
	return ""
}

func isImagePath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".avif", ".bmp":
		return true
	default:
		return false
	}
}

// titleFor falls back to the file name stem when the note has neither a
// frontmatter title nor an H1.
func titleFor(res *parser.Result, notePath string) string {
	if res.Title != "" {
		return res.Title
	}
	return stem(notePath)
}

func stem(notePath string) string {
	base := path.Base(notePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
