package domain

import "strconv"

// ContentType identifies a kind of taggable entity. ID is persisted and stable
// across restarts; (AppLabel, Model) is unique.
type ContentType struct {
	ID       int64  `json:"id"`
	AppLabel string `json:"app_label"`
	Model    string `json:"model"`
}

// Name returns the canonical "app_label.model" form, e.g. "store.product".
func (c ContentType) Name() string {
	return c.AppLabel + "." + c.Model
}

// Ref identifies one tagged entity: a content type plus an object ID.
type Ref struct {
	ContentTypeID int64
	ObjectID      int64
}

func (r Ref) String() string {
	return strconv.FormatInt(r.ContentTypeID, 10) + ":" + strconv.FormatInt(r.ObjectID, 10)
}
