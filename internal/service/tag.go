package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/search"
	"github.com/storefrontapp/storefront-server/internal/tagging"
)

// ErrSearchDisabled is returned by SearchTags when no search index is configured.
var ErrSearchDisabled = domainerrors.Wrap(errors.New("search disabled"), domainerrors.CodeUnavailable, "tag search is not enabled")

// TagService orchestrates the tag index and the tag search index.
// Search updates are best effort: a failure is logged and the write stands.
type TagService struct {
	index  *tagging.Index
	search *search.SearchIndex
	logger *slog.Logger
}

// NewTagService creates a new tag service. searchIndex may be nil.
func NewTagService(index *tagging.Index, searchIndex *search.SearchIndex, logger *slog.Logger) *TagService {
	return &TagService{
		index:  index,
		search: searchIndex,
		logger: logger,
	}
}

// ContentTypes returns the registered taggable types.
func (s *TagService) ContentTypes() []domain.ContentType {
	return s.index.Registry().All()
}

// TagsFor returns a lazy query over an entity's tags.
func (s *TagService) TagsFor(ctx context.Context, entityType string, objectID int64) (*tagging.Query[domain.Tag], error) {
	return s.index.TagsFor(ctx, entityType, objectID)
}

// GetTagsFor returns every tag on an entity.
func (s *TagService) GetTagsFor(ctx context.Context, entityType string, objectID int64) ([]domain.Tag, error) {
	return s.index.GetTagsFor(ctx, entityType, objectID)
}

// EntitiesFor returns a lazy query over the IDs of entities carrying label.
func (s *TagService) EntitiesFor(ctx context.Context, entityType, label string) (*tagging.Query[int64], error) {
	return s.index.EntitiesFor(ctx, entityType, label)
}

// GetEntitiesFor returns the IDs of every entity of entityType carrying label.
func (s *TagService) GetEntitiesFor(ctx context.Context, entityType, label string) ([]int64, error) {
	return s.index.GetEntitiesFor(ctx, entityType, label)
}

// Attach tags an entity, creating the tag if needed, and makes the tag searchable.
func (s *TagService) Attach(ctx context.Context, entityType string, objectID int64, label string) (domain.Tag, bool, error) {
	// 1. Attach through the index.
	tag, created, err := s.index.Attach(ctx, entityType, objectID, label)
	if err != nil {
		return domain.Tag{}, false, err
	}

	// 2. Index the label (best effort). Re-indexing an existing tag replaces it.
	if created {
		s.indexTag(&tag)
	}

	return tag, created, nil
}

// Detach removes a label from an entity.
func (s *TagService) Detach(ctx context.Context, entityType string, objectID int64, label string) (bool, error) {
	return s.index.Detach(ctx, entityType, objectID, label)
}

// DetachAll removes every tag from an entity.
func (s *TagService) DetachAll(ctx context.Context, entityType string, objectID int64) (int, error) {
	return s.index.DetachAll(ctx, entityType, objectID)
}

// DeleteTag deletes a tag everywhere and drops it from search.
func (s *TagService) DeleteTag(ctx context.Context, tagID int64) (int, error) {
	detached, err := s.index.DeleteTag(ctx, tagID)
	if err != nil {
		return 0, err
	}

	if s.search != nil {
		if err := s.search.DeleteTag(tagID); err != nil {
			s.logger.Warn("failed to remove tag from search index", "tag_id", tagID, "error", err)
		}
	}
	return detached, nil
}

// GetTag returns one tag.
func (s *TagService) GetTag(ctx context.Context, tagID int64) (*domain.Tag, error) {
	return s.index.GetTag(ctx, tagID)
}

// ListTags returns every tag with its association count, ordered by key.
func (s *TagService) ListTags(ctx context.Context) ([]domain.TagUsage, error) {
	return s.index.ListTags(ctx)
}

// SearchTags finds tags by label with prefix and typo tolerance.
func (s *TagService) SearchTags(ctx context.Context, q string, limit int) (*search.SearchResult, error) {
	if s.search == nil {
		return nil, ErrSearchDisabled
	}
	return s.search.SearchTags(ctx, q, limit)
}

// EnsureSearchIndex reindexes every tag when the search index is empty but
// tags exist, as after a mapping change or a deleted index directory.
func (s *TagService) EnsureSearchIndex(ctx context.Context) error {
	if s.search == nil {
		return nil
	}

	count, err := s.search.DocumentCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	usage, err := s.index.ListTags(ctx)
	if err != nil {
		return err
	}
	if len(usage) == 0 {
		return nil
	}

	s.logger.Info("search index empty, reindexing tags", "tags", len(usage))
	return s.indexAll(ctx, usage)
}

// Reindex rebuilds the search index from storage and returns how many tags
// were indexed.
func (s *TagService) Reindex(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, ErrSearchDisabled
	}
	usage, err := s.index.ListTags(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.search.Rebuild(); err != nil {
		return 0, err
	}
	if err := s.indexAll(ctx, usage); err != nil {
		return 0, err
	}
	return len(usage), nil
}

func (s *TagService) indexAll(ctx context.Context, usage []domain.TagUsage) error {
	tags := make([]domain.Tag, len(usage))
	for i, u := range usage {
		tags[i] = u.Tag
	}
	if err := s.search.IndexTags(ctx, tags); err != nil {
		return err
	}
	s.logger.Info("tags indexed", "count", len(tags))
	return nil
}

func (s *TagService) indexTag(tag *domain.Tag) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexTag(tag); err != nil {
		s.logger.Warn("failed to index tag", "tag_id", tag.ID, "tag_label", tag.Label, "error", err)
	}
}
