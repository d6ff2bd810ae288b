package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/service"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCollections",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections",
		Summary:     "List collections",
		Description: "Returns all collections with their product counts",
		Tags:        []string{"Collections"},
	}, s.handleListCollections)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createCollection",
		Method:        http.MethodPost,
		Path:          "/api/v1/collections",
		Summary:       "Create collection",
		Description:   "Creates a new collection",
		Tags:          []string{"Collections"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Get collection",
		Description: "Returns a collection with its tags",
		Tags:        []string{"Collections"},
	}, s.handleGetCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCollection",
		Method:      http.MethodPatch,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Update collection",
		Description: "Updates the title or featured product; a featured_product of 0 clears it",
		Tags:        []string{"Collections"},
	}, s.handleUpdateCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCollection",
		Method:      http.MethodDelete,
		Path:        "/api/v1/collections/{id}",
		Summary:     "Delete collection",
		Description: "Deletes an empty collection and clears its tags",
		Tags:        []string{"Collections"},
	}, s.handleDeleteCollection)
}

// === DTOs ===

// ListCollectionsOutput contains all collections.
type ListCollectionsOutput struct {
	Body struct {
		Collections []domain.Collection `json:"collections" doc:"Collections ordered by title"`
	}
}

// CollectionIDInput contains a collection ID path parameter.
type CollectionIDInput struct {
	ID int64 `path:"id" doc:"Collection ID"`
}

// CollectionOutput contains a single collection.
type CollectionOutput struct {
	Body *service.CollectionView
}

// CreateCollectionInput wraps the create request for Huma.
type CreateCollectionInput struct {
	Body struct {
		Title string `json:"title" doc:"Collection title"`
	}
}

// UpdateCollectionInput wraps the update request for Huma.
type UpdateCollectionInput struct {
	ID   int64 `path:"id" doc:"Collection ID"`
	Body struct {
		Title             *string `json:"title,omitempty" doc:"Collection title"`
		FeaturedProductID *int64  `json:"featured_product,omitempty" doc:"Featured product ID, 0 to clear"`
	}
}

// === Handlers ===

func (s *Server) handleListCollections(ctx context.Context, _ *struct{}) (*ListCollectionsOutput, error) {
	collections, err := s.services.Catalog.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	resp := &ListCollectionsOutput{}
	resp.Body.Collections = collections
	return resp, nil
}

func (s *Server) handleGetCollection(ctx context.Context, input *CollectionIDInput) (*CollectionOutput, error) {
	collection, err := s.services.Catalog.GetCollection(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: collection}, nil
}

func (s *Server) handleCreateCollection(ctx context.Context, input *CreateCollectionInput) (*CollectionOutput, error) {
	collection, err := s.services.Catalog.CreateCollection(ctx, service.CreateCollectionRequest{
		Title: input.Body.Title,
	})
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: &service.CollectionView{Collection: *collection}}, nil
}

func (s *Server) handleUpdateCollection(ctx context.Context, input *UpdateCollectionInput) (*CollectionOutput, error) {
	collection, err := s.services.Catalog.UpdateCollection(ctx, input.ID, service.UpdateCollectionRequest{
		Title:             input.Body.Title,
		FeaturedProductID: input.Body.FeaturedProductID,
	})
	if err != nil {
		return nil, err
	}
	return &CollectionOutput{Body: &service.CollectionView{Collection: *collection}}, nil
}

func (s *Server) handleDeleteCollection(ctx context.Context, input *CollectionIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeleteCollection(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Collection deleted"), nil
}
