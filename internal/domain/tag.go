package domain

import "time"

// MaxLabelLength bounds a tag label in characters.
const MaxLabelLength = 255

// Tag is a label shared by any number of entities of any content type.
// Key is the normalized label and is unique; Label keeps the first spelling seen.
type Tag struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Key       string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TaggedItem associates a tag with one entity. ObjectID is interpreted
// according to ContentTypeID and is not checked against any table.
type TaggedItem struct {
	ID            int64     `json:"id"`
	TagID         int64     `json:"tag_id"`
	ContentTypeID int64     `json:"content_type_id"`
	ObjectID      int64     `json:"object_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Ref returns the entity the item points at.
func (ti TaggedItem) Ref() Ref {
	return Ref{ContentTypeID: ti.ContentTypeID, ObjectID: ti.ObjectID}
}

// TagUsage is a tag with the number of entities carrying it.
type TagUsage struct {
	Tag
	ItemCount int `json:"item_count"`
}
