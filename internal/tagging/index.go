// Package tagging is the tag association index: tags attached to entities of
// any registered content type, looked up in either direction.
package tagging

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/storefrontapp/storefront-server/internal/contenttype"
	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/metrics"
	"github.com/storefrontapp/storefront-server/internal/normalize"
	"github.com/storefrontapp/storefront-server/internal/store"
	"github.com/storefrontapp/storefront-server/internal/validation"
)

// Operation names reported to metrics.
const (
	OpTagsFor     = "tags_for"
	OpEntitiesFor = "entities_for"
	OpAttach      = "attach"
	OpDetach      = "detach"
	OpDetachAll   = "detach_all"
	OpDeleteTag   = "delete_tag"
	OpListTags    = "list_tags"
)

// Index answers "which tags does this entity carry" and "which entities of
// this type carry this label".
//
// Entity IDs are never checked against the entity's table; an ID nothing was
// ever attached to simply has no tags.
type Index struct {
	backend  store.TagIndex
	registry *contenttype.Registry
	metrics  *metrics.Metrics
	validate *validation.Validator
	logger   *slog.Logger
}

// NewIndex creates an index over backend. m may be nil.
func NewIndex(backend store.TagIndex, registry *contenttype.Registry, m *metrics.Metrics, logger *slog.Logger) *Index {
	return &Index{
		backend:  backend,
		registry: registry,
		metrics:  m,
		validate: validation.New(),
		logger:   logger,
	}
}

// Registry returns the content-type registry the index resolves names with.
func (i *Index) Registry() *contenttype.Registry {
	return i.registry
}

// TagsFor returns a lazy query over the tags of one entity, in the order they
// were attached. An unknown entity type fails immediately.
func (i *Index) TagsFor(ctx context.Context, entityType string, objectID int64) (*Query[domain.Tag], error) {
	ct, err := i.registry.Resolve(entityType)
	if err != nil {
		i.metrics.TagOperation(OpTagsFor, err)
		return nil, err
	}
	ref := domain.Ref{ContentTypeID: ct.ID, ObjectID: objectID}

	return memoized(ctx, "tags:"+ref.String(), func() *Query[domain.Tag] {
		return newQuery(
			func(ctx context.Context, offset, limit int) ([]domain.Tag, error) {
				tags, err := i.backend.TagsFor(ctx, ref, offset, limit)
				i.metrics.TagOperation(OpTagsFor, err)
				return tags, err
			},
			func(ctx context.Context) (int, error) {
				return i.backend.CountTagsFor(ctx, ref)
			},
		)
	}), nil
}

// GetTagsFor returns every tag on an entity. An entity with no tags yields an
// empty slice.
func (i *Index) GetTagsFor(ctx context.Context, entityType string, objectID int64) ([]domain.Tag, error) {
	q, err := i.TagsFor(ctx, entityType, objectID)
	if err != nil {
		return nil, err
	}
	return q.All(ctx)
}

// EntitiesFor returns a lazy query over the IDs of entities of entityType
// carrying label, ascending. An unknown label yields no IDs.
func (i *Index) EntitiesFor(ctx context.Context, entityType, label string) (*Query[int64], error) {
	ct, err := i.registry.Resolve(entityType)
	if err != nil {
		i.metrics.TagOperation(OpEntitiesFor, err)
		return nil, err
	}
	key := normalize.LabelKey(label)
	if key == "" {
		return emptyQuery[int64](), nil
	}

	return memoized(ctx, "entities:"+strconv.FormatInt(ct.ID, 10)+":"+key, func() *Query[int64] {
		return newQuery(
			func(ctx context.Context, offset, limit int) ([]int64, error) {
				tag, err := i.lookupTag(ctx, key)
				if err != nil || tag == nil {
					i.metrics.TagOperation(OpEntitiesFor, err)
					return []int64{}, err
				}
				ids, err := i.backend.ObjectIDsFor(ctx, ct.ID, tag.ID, offset, limit)
				i.metrics.TagOperation(OpEntitiesFor, err)
				return ids, err
			},
			func(ctx context.Context) (int, error) {
				tag, err := i.lookupTag(ctx, key)
				if err != nil || tag == nil {
					return 0, err
				}
				return i.backend.CountObjectIDsFor(ctx, ct.ID, tag.ID)
			},
		)
	}), nil
}

// GetEntitiesFor returns the IDs of every entity of entityType carrying label.
func (i *Index) GetEntitiesFor(ctx context.Context, entityType, label string) ([]int64, error) {
	q, err := i.EntitiesFor(ctx, entityType, label)
	if err != nil {
		return nil, err
	}
	return q.All(ctx)
}

// lookupTag returns the tag with key, or nil if there is none.
func (i *Index) lookupTag(ctx context.Context, key string) (*domain.Tag, error) {
	tag, err := i.backend.GetTagByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return tag, err
}

// Attach tags an entity with label, creating the tag if needed. Labels that
// normalize to the same key are the same tag. Attaching a tag the entity
// already carries changes nothing and reports created=false.
func (i *Index) Attach(ctx context.Context, entityType string, objectID int64, label string) (domain.Tag, bool, error) {
	tag, created, err := i.attach(ctx, entityType, objectID, label)
	i.metrics.TagOperation(OpAttach, err)
	return tag, created, err
}

func (i *Index) attach(ctx context.Context, entityType string, objectID int64, label string) (domain.Tag, bool, error) {
	// 1. Resolve the entity type.
	ct, err := i.registry.Resolve(entityType)
	if err != nil {
		return domain.Tag{}, false, err
	}

	// 2. Normalize and validate the label.
	clean := normalize.CleanLabel(label)
	if err := i.validate.Var("label", clean, "notblank,maxrunes="+strconv.Itoa(domain.MaxLabelLength)); err != nil {
		return domain.Tag{}, false, err
	}
	key := normalize.LabelKey(clean)

	// 3. Find or create the tag.
	tag, tagCreated, err := i.backend.FindOrCreateTag(ctx, clean, key)
	if err != nil {
		return domain.Tag{}, false, err
	}
	if tagCreated {
		i.metrics.AddTagCount(1)
	}

	// 4. Insert the association (ignored if present).
	ref := domain.Ref{ContentTypeID: ct.ID, ObjectID: objectID}
	created, err := i.backend.AddTaggedItem(ctx, tag.ID, ref)
	if err != nil {
		return domain.Tag{}, false, err
	}
	invalidateScope(ctx)

	i.logger.Info("tag attached",
		"tag_label", tag.Label,
		"content_type", ct.Name(),
		"object_id", objectID,
		"created", created,
	)
	return *tag, created, nil
}

// Detach removes label from an entity and reports whether it was there.
func (i *Index) Detach(ctx context.Context, entityType string, objectID int64, label string) (bool, error) {
	removed, err := i.detach(ctx, entityType, objectID, label)
	i.metrics.TagOperation(OpDetach, err)
	return removed, err
}

func (i *Index) detach(ctx context.Context, entityType string, objectID int64, label string) (bool, error) {
	ct, err := i.registry.Resolve(entityType)
	if err != nil {
		return false, err
	}
	tag, err := i.lookupTag(ctx, normalize.LabelKey(label))
	if err != nil || tag == nil {
		return false, err
	}

	removed, err := i.backend.RemoveTaggedItem(ctx, tag.ID, domain.Ref{ContentTypeID: ct.ID, ObjectID: objectID})
	if err != nil {
		return false, err
	}
	invalidateScope(ctx)

	if removed {
		i.logger.Info("tag detached",
			"tag_label", tag.Label,
			"content_type", ct.Name(),
			"object_id", objectID,
		)
	}
	return removed, nil
}

// DetachAll removes every tag from one entity. Services call it after deleting
// the entity so its associations do not outlive it.
func (i *Index) DetachAll(ctx context.Context, entityType string, objectID int64) (int, error) {
	n, err := i.detachAll(ctx, entityType, objectID)
	i.metrics.TagOperation(OpDetachAll, err)
	return n, err
}

func (i *Index) detachAll(ctx context.Context, entityType string, objectID int64) (int, error) {
	ct, err := i.registry.Resolve(entityType)
	if err != nil {
		return 0, err
	}
	n, err := i.backend.RemoveTaggedItemsFor(ctx, domain.Ref{ContentTypeID: ct.ID, ObjectID: objectID})
	if err != nil {
		return 0, err
	}
	invalidateScope(ctx)

	if n > 0 {
		i.logger.Info("entity tags cleared", "content_type", ct.Name(), "object_id", objectID, "detached", n)
	}
	return n, nil
}

// DeleteTag deletes a tag and every association it has, returning how many
// associations went with it.
func (i *Index) DeleteTag(ctx context.Context, tagID int64) (int, error) {
	detached, err := i.backend.DeleteTag(ctx, tagID)
	if errors.Is(err, store.ErrNotFound) {
		err = domainerrors.NotFoundf("tag %d not found", tagID)
	}
	i.metrics.TagOperation(OpDeleteTag, err)
	if err != nil {
		return 0, err
	}
	i.metrics.AddTagCount(-1)
	invalidateScope(ctx)

	i.logger.Info("tag deleted", "tag_id", tagID, "detached", detached)
	return detached, nil
}

// GetTag returns one tag.
func (i *Index) GetTag(ctx context.Context, tagID int64) (*domain.Tag, error) {
	tag, err := i.backend.GetTag(ctx, tagID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("tag %d not found", tagID)
	}
	return tag, err
}

// ListTags returns every tag with its association count, ordered by key.
func (i *Index) ListTags(ctx context.Context) ([]domain.TagUsage, error) {
	usage, err := i.backend.ListTagUsage(ctx)
	i.metrics.TagOperation(OpListTags, err)
	return usage, err
}

// SyncMetrics sets the tag gauge from storage.
func (i *Index) SyncMetrics(ctx context.Context) error {
	n, err := i.backend.CountTags(ctx)
	if err != nil {
		return err
	}
	i.metrics.SetTagCount(n)
	return nil
}
