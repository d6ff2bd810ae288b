// Package contenttype maps entity type names to persisted content types.
//
// The registry is filled at startup. Every name that can appear in a request
// ("product", "Product", "store.product") resolves through one table, and a
// name that was never registered is an error rather than an empty result.
package contenttype

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/storefrontapp/storefront-server/internal/domain"
	domainerrors "github.com/storefrontapp/storefront-server/internal/errors"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// AppLabel is the application label of every storefront content type.
const AppLabel = "store"

// Default models registered by RegisterDefaults.
const (
	ModelProduct    = "product"
	ModelCollection = "collection"
	ModelCustomer   = "customer"
	ModelOrder      = "order"
	ModelPromotion  = "promotion"
)

// ErrUnknownContentType is returned for names that were never registered.
// It carries CodeNotFound, so errors.Is matches it against any NOT_FOUND error.
var ErrUnknownContentType = domainerrors.NotFound("unknown content type")

// Registry resolves entity type names to content types.
type Registry struct {
	store  store.ContentTypeStore
	logger *slog.Logger

	mu     sync.RWMutex
	byName map[string]domain.ContentType
	byID   map[int64]domain.ContentType
}

// NewRegistry creates an empty registry backed by s.
func NewRegistry(s store.ContentTypeStore, logger *slog.Logger) *Registry {
	return &Registry{
		store:  s,
		logger: logger,
		byName: make(map[string]domain.ContentType),
		byID:   make(map[int64]domain.ContentType),
	}
}

// Register persists (appLabel, model) and makes it resolvable by its canonical
// name, its bare model name and any aliases.
func (r *Registry) Register(ctx context.Context, appLabel, model string, aliases ...string) (domain.ContentType, error) {
	appLabel = strings.ToLower(strings.TrimSpace(appLabel))
	model = strings.ToLower(strings.TrimSpace(model))
	if appLabel == "" || model == "" {
		return domain.ContentType{}, domainerrors.Validation("content type needs an app label and a model")
	}

	ct, err := r.store.EnsureContentType(ctx, appLabel, model)
	if err != nil {
		return domain.ContentType{}, domainerrors.Wrapf(err, domainerrors.CodeInternal, "register content type %s.%s", appLabel, model)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{ct.Name(), model}, aliases...)
	for _, name := range names {
		key := nameKey(name)
		if existing, ok := r.byName[key]; ok && existing.ID != ct.ID {
			r.logger.Warn("content type alias reassigned",
				"alias", key,
				"from", existing.Name(),
				"to", ct.Name(),
			)
		}
		r.byName[key] = ct
	}
	r.byID[ct.ID] = ct

	r.logger.Debug("content type registered", "content_type", ct.Name(), "id", ct.ID)
	return ct, nil
}

// RegisterDefaults registers the storefront's taggable entity types.
func (r *Registry) RegisterDefaults(ctx context.Context) error {
	for _, model := range []string{ModelProduct, ModelCollection, ModelCustomer, ModelOrder, ModelPromotion} {
		if _, err := r.Register(ctx, AppLabel, model); err != nil {
			return err
		}
	}
	return nil
}

// Resolve looks up a content type by name, ignoring case and surrounding space.
func (r *Registry) Resolve(name string) (domain.ContentType, error) {
	r.mu.RLock()
	ct, ok := r.byName[nameKey(name)]
	r.mu.RUnlock()

	if !ok {
		return domain.ContentType{}, ErrUnknownContentType.
			WithMessage("unknown content type: " + strings.TrimSpace(name)).
			WithDetails(map[string]string{"content_type": name})
	}
	return ct, nil
}

// ByID returns the registered content type with id.
func (r *Registry) ByID(id int64) (domain.ContentType, error) {
	r.mu.RLock()
	ct, ok := r.byID[id]
	r.mu.RUnlock()

	if !ok {
		return domain.ContentType{}, ErrUnknownContentType.
			WithMessage("unknown content type id").
			WithDetails(map[string]int64{"content_type_id": id})
	}
	return ct, nil
}

// All returns the registered content types ordered by ID.
func (r *Registry) All() []domain.ContentType {
	r.mu.RLock()
	out := make([]domain.ContentType, 0, len(r.byID))
	for _, ct := range r.byID {
		out = append(out, ct)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
