package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/search"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listContentTypes",
		Method:      http.MethodGet,
		Path:        "/api/v1/content-types",
		Summary:     "List content types",
		Description: "Returns every entity type that can carry tags",
		Tags:        []string{"Tags"},
	}, s.handleListContentTypes)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags with the number of entities carrying each, ordered by label",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/search",
		Summary:     "Search tags",
		Description: "Full-text search over tag labels with prefix and typo tolerance",
		Tags:        []string{"Tags"},
	}, s.handleSearchTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "reindexTags",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags/search/reindex",
		Summary:       "Rebuild tag search index",
		Description:   "Drops the tag search index and indexes every stored tag again",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusOK,
	}, s.handleReindexTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEntitiesForTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/entities/{type}",
		Summary:     "Get entities for tag",
		Description: "Returns the IDs of entities of a type carrying a tag label",
		Tags:        []string{"Tags"},
	}, s.handleGetEntitiesFor)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Description: "Returns a tag by ID",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Description: "Deletes a tag and removes it from every entity",
		Tags:        []string{"Tags"},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTagsForEntity",
		Method:      http.MethodGet,
		Path:        "/api/v1/tagged/{type}/{id}",
		Summary:     "Get tags for entity",
		Description: "Returns the tags attached to one entity, in the order they were attached",
		Tags:        []string{"Tags"},
	}, s.handleGetTagsFor)

	huma.Register(s.api, huma.Operation{
		OperationID: "attachTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tagged/{type}/{id}",
		Summary:     "Attach tag",
		Description: "Attaches a label to an entity, creating the tag if needed. Attaching twice is a no-op.",
		Tags:        []string{"Tags"},
	}, s.handleAttachTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "detachTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tagged/{type}/{id}/{label}",
		Summary:     "Detach tag",
		Description: "Removes a label from an entity. The tag itself is kept.",
		Tags:        []string{"Tags"},
	}, s.handleDetachTag)
}

// === DTOs ===

// ContentTypeResponse is one taggable entity type.
type ContentTypeResponse struct {
	ID       int64  `json:"id" doc:"Stable content type ID"`
	Name     string `json:"name" doc:"Canonical name, e.g. store.product"`
	AppLabel string `json:"app_label" doc:"Application label"`
	Model    string `json:"model" doc:"Model name"`
}

// ListContentTypesOutput contains the registered content types.
type ListContentTypesOutput struct {
	Body struct {
		ContentTypes []ContentTypeResponse `json:"content_types" doc:"Registered content types"`
	}
}

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID        int64     `json:"id" doc:"Tag ID"`
	Label     string    `json:"label" doc:"Display label"`
	ItemCount *int      `json:"item_count,omitempty" doc:"Number of entities carrying the tag"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

func newTagResponse(t domain.Tag) TagResponse {
	return TagResponse{ID: t.ID, Label: t.Label, CreatedAt: t.CreatedAt}
}

func newTagResponses(tags []domain.Tag) []TagResponse {
	out := make([]TagResponse, len(tags))
	for i, t := range tags {
		out[i] = newTagResponse(t)
	}
	return out
}

// ListTagsOutput contains tags with usage counts.
type ListTagsOutput struct {
	Body struct {
		Tags []TagResponse `json:"tags" doc:"Tags ordered by label"`
	}
}

// SearchTagsInput contains parameters for searching tags.
type SearchTagsInput struct {
	Q     string `query:"q" doc:"Search query; empty lists tags by label"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" default:"20" doc:"Max results"`
}

// SearchTagsOutput contains search results.
type SearchTagsOutput struct {
	Body *search.SearchResult
}

// ReindexTagsOutput reports how many tags were indexed.
type ReindexTagsOutput struct {
	Body struct {
		Indexed int `json:"indexed" doc:"Number of tags indexed"`
	}
}

// TagIDInput contains a tag ID path parameter.
type TagIDInput struct {
	ID int64 `path:"id" doc:"Tag ID"`
}

// TagOutput contains a single tag.
type TagOutput struct {
	Body TagResponse
}

// DeleteTagOutput reports how many associations a tag deletion removed.
type DeleteTagOutput struct {
	Body struct {
		TagID    int64 `json:"tag_id" doc:"Deleted tag ID"`
		Detached int   `json:"detached" doc:"Number of entities the tag was removed from"`
	}
}

// TagsForInput selects a window of one entity's tags.
type TagsForInput struct {
	Type   string `path:"type" doc:"Content type, e.g. product or store.product"`
	ID     int64  `path:"id" doc:"Entity ID"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Skip this many tags"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Max tags to return"`
}

// TagsForOutput contains the tags of one entity.
type TagsForOutput struct {
	Body struct {
		Type  string        `json:"type" doc:"Content type as requested"`
		ID    int64         `json:"id" doc:"Entity ID"`
		Total int           `json:"total" doc:"Total tags on the entity"`
		Tags  []TagResponse `json:"tags" doc:"Tags in attach order"`
	}
}

// AttachTagRequest is the request body for attaching a label.
type AttachTagRequest struct {
	Label string `json:"label" doc:"Tag label; case and surrounding whitespace are ignored when matching"`
}

// AttachTagInput wraps the attach request for Huma.
type AttachTagInput struct {
	Type string `path:"type" doc:"Content type"`
	ID   int64  `path:"id" doc:"Entity ID"`
	Body AttachTagRequest
}

// AttachTagOutput reports the tag and whether the association is new.
type AttachTagOutput struct {
	Body struct {
		Tag     TagResponse `json:"tag" doc:"The attached tag"`
		Created bool        `json:"created" doc:"False when the entity already carried the tag"`
	}
}

// DetachTagInput identifies one association.
type DetachTagInput struct {
	Type  string `path:"type" doc:"Content type"`
	ID    int64  `path:"id" doc:"Entity ID"`
	Label string `path:"label" doc:"Tag label"`
}

// DetachTagOutput reports whether an association was removed.
type DetachTagOutput struct {
	Body struct {
		Removed bool `json:"removed" doc:"False when the entity did not carry the tag"`
	}
}

// EntitiesForInput selects entities of one type by tag label.
type EntitiesForInput struct {
	Type   string `path:"type" doc:"Content type"`
	Label  string `query:"label" required:"true" doc:"Tag label"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Skip this many IDs"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" default:"100" doc:"Max IDs to return"`
}

// EntitiesForOutput contains matching entity IDs.
type EntitiesForOutput struct {
	Body struct {
		Type      string  `json:"type" doc:"Content type as requested"`
		Label     string  `json:"label" doc:"Tag label as requested"`
		Total     int     `json:"total" doc:"Total matching entities"`
		ObjectIDs []int64 `json:"object_ids" doc:"Matching entity IDs, ascending"`
	}
}

// === Handlers ===

func (s *Server) handleListContentTypes(_ context.Context, _ *struct{}) (*ListContentTypesOutput, error) {
	cts := s.services.Tags.ContentTypes()

	resp := &ListContentTypesOutput{}
	resp.Body.ContentTypes = make([]ContentTypeResponse, len(cts))
	for i, ct := range cts {
		resp.Body.ContentTypes[i] = ContentTypeResponse{
			ID:       ct.ID,
			Name:     ct.Name(),
			AppLabel: ct.AppLabel,
			Model:    ct.Model,
		}
	}
	return resp, nil
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	usage, err := s.services.Tags.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	resp := &ListTagsOutput{}
	resp.Body.Tags = make([]TagResponse, len(usage))
	for i, u := range usage {
		tr := newTagResponse(u.Tag)
		tr.ItemCount = &usage[i].ItemCount
		resp.Body.Tags[i] = tr
	}
	return resp, nil
}

func (s *Server) handleSearchTags(ctx context.Context, input *SearchTagsInput) (*SearchTagsOutput, error) {
	result, err := s.services.Tags.SearchTags(ctx, input.Q, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchTagsOutput{Body: result}, nil
}

func (s *Server) handleReindexTags(ctx context.Context, _ *struct{}) (*ReindexTagsOutput, error) {
	indexed, err := s.services.Tags.Reindex(ctx)
	if err != nil {
		return nil, err
	}

	resp := &ReindexTagsOutput{}
	resp.Body.Indexed = indexed
	return resp, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagIDInput) (*TagOutput, error) {
	tag, err := s.services.Tags.GetTag(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: newTagResponse(*tag)}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*DeleteTagOutput, error) {
	detached, err := s.services.Tags.DeleteTag(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := &DeleteTagOutput{}
	resp.Body.TagID = input.ID
	resp.Body.Detached = detached
	return resp, nil
}

func (s *Server) handleGetTagsFor(ctx context.Context, input *TagsForInput) (*TagsForOutput, error) {
	q, err := s.services.Tags.TagsFor(ctx, input.Type, input.ID)
	if err != nil {
		return nil, err
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := q.Slice(ctx, input.Offset, input.Offset+input.Limit)
	if err != nil {
		return nil, err
	}

	resp := &TagsForOutput{}
	resp.Body.Type = input.Type
	resp.Body.ID = input.ID
	resp.Body.Total = total
	resp.Body.Tags = newTagResponses(tags)
	return resp, nil
}

func (s *Server) handleAttachTag(ctx context.Context, input *AttachTagInput) (*AttachTagOutput, error) {
	tag, created, err := s.services.Tags.Attach(ctx, input.Type, input.ID, input.Body.Label)
	if err != nil {
		return nil, err
	}

	resp := &AttachTagOutput{}
	resp.Body.Tag = newTagResponse(tag)
	resp.Body.Created = created
	return resp, nil
}

func (s *Server) handleDetachTag(ctx context.Context, input *DetachTagInput) (*DetachTagOutput, error) {
	removed, err := s.services.Tags.Detach(ctx, input.Type, input.ID, input.Label)
	if err != nil {
		return nil, err
	}

	resp := &DetachTagOutput{}
	resp.Body.Removed = removed
	return resp, nil
}

func (s *Server) handleGetEntitiesFor(ctx context.Context, input *EntitiesForInput) (*EntitiesForOutput, error) {
	q, err := s.services.Tags.EntitiesFor(ctx, input.Type, input.Label)
	if err != nil {
		return nil, err
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := q.Slice(ctx, input.Offset, input.Offset+input.Limit)
	if err != nil {
		return nil, err
	}

	resp := &EntitiesForOutput{}
	resp.Body.Type = input.Type
	resp.Body.Label = input.Label
	resp.Body.Total = total
	resp.Body.ObjectIDs = ids
	return resp, nil
}
