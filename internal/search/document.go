// Package search provides full-text search over tag labels using Bleve.
// It backs autocomplete and typo-tolerant lookup of existing tags so clients
// reuse a label instead of minting a near-duplicate.
package search

import (
	"strconv"

	"github.com/storefrontapp/storefront-server/internal/domain"
)

// DocTypeTag is the only document type in the index today.
const DocTypeTag = "tag"

// TagDocument is the indexed form of a tag.
type TagDocument struct {
	ID        string `json:"id"` // Decimal tag ID
	Type      string `json:"type"`
	Label     string `json:"label"`
	Key       string `json:"key"`
	CreatedAt int64  `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map whose keys match the index mapping.
// label is written twice: once for stemmed matching, once for prefix and
// fuzzy matching on the raw lowercase terms.
func (d *TagDocument) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":         d.ID,
		"type":       d.Type,
		"label":      d.Label,
		"label_raw":  d.Label,
		"key":        d.Key,
		"created_at": d.CreatedAt,
	}
}

// DocID returns the document ID for a tag.
func DocID(tagID int64) string {
	return strconv.FormatInt(tagID, 10)
}

// TagToDocument converts a domain Tag to a TagDocument.
func TagToDocument(t *domain.Tag) *TagDocument {
	return &TagDocument{
		ID:        DocID(t.ID),
		Type:      DocTypeTag,
		Label:     t.Label,
		Key:       t.Key,
		CreatedAt: t.CreatedAt.UnixMilli(),
	}
}
