package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// tagRecord is the stored form of a tag; domain.Tag hides Key from JSON.
type tagRecord struct {
	ID        int64     `json:"id"`
	Label     string    `json:"label"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

func (r tagRecord) toDomain() domain.Tag {
	return domain.Tag{ID: r.ID, Label: r.Label, Key: r.Key, CreatedAt: r.CreatedAt}
}

// itemRecord is the stored form of a tagged item. Seq orders the entity's tags.
type itemRecord struct {
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// EnsureContentType returns the content type, creating it on first use.
func (s *Store) EnsureContentType(ctx context.Context, appLabel, model string) (domain.ContentType, error) {
	ct := domain.ContentType{AppLabel: appLabel, Model: model}

	err := s.update(ctx, func(txn *badger.Txn) error {
		nameKey := makeKey(contentTypeByName, ct.Name())

		id, err := getID(txn, nameKey)
		if err == nil {
			ct.ID = id
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if ct.ID, err = nextID(s.contentTypeSeq); err != nil {
			return err
		}
		if err := setJSON(txn, makeKey(contentTypePrefix, hexID(ct.ID)), ct); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(hexID(ct.ID)))
	})
	if err != nil {
		return domain.ContentType{}, fmt.Errorf("ensure content type %s: %w", ct.Name(), err)
	}
	return ct, nil
}

// ListContentTypes returns all content types ordered by ID.
func (s *Store) ListContentTypes(ctx context.Context) ([]domain.ContentType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(contentTypePrefix)
	types := []domain.ContentType{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var ct domain.ContentType
			if err := getJSON(txn, it.Item().Key(), &ct); err != nil {
				return err
			}
			types = append(types, ct)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return types, nil
}

func (s *Store) getTagInTxn(txn *badger.Txn, id int64) (*tagRecord, error) {
	key := buildKey(tagPrefix, hexID(id))
	defer releaseKey(key)

	var rec tagRecord
	if err := getJSON(txn, key, &rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("tag %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

// GetTag retrieves a tag by ID.
func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := s.getTagInTxn(txn, id)
		if err != nil {
			return err
		}
		t = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagByKey retrieves a tag by its normalized label.
func (s *Store) GetTagByKey(ctx context.Context, key string) (*domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var t domain.Tag
	err := s.db.View(func(txn *badger.Txn) error {
		idxKey := buildKey(tagByKeyPrefix, key)
		defer releaseKey(idxKey)

		id, err := getID(txn, idxKey)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("tag %q: %w", key, store.ErrNotFound)
			}
			return err
		}
		rec, err := s.getTagInTxn(txn, id)
		if err != nil {
			return err
		}
		t = rec.toDomain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindOrCreateTag returns the tag with key, creating it with label if absent.
// The bool reports whether a tag was created.
func (s *Store) FindOrCreateTag(ctx context.Context, label, key string) (*domain.Tag, bool, error) {
	var (
		t       domain.Tag
		created bool
	)

	err := s.update(ctx, func(txn *badger.Txn) error {
		created = false
		idxKey := makeKey(tagByKeyPrefix, key)

		id, err := getID(txn, idxKey)
		if err == nil {
			rec, err := s.getTagInTxn(txn, id)
			if err != nil {
				return err
			}
			t = rec.toDomain()
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		rec := tagRecord{Label: label, Key: key, CreatedAt: time.Now().UTC()}
		if rec.ID, err = nextID(s.tagSeq); err != nil {
			return err
		}
		if err := setJSON(txn, makeKey(tagPrefix, hexID(rec.ID)), rec); err != nil {
			return err
		}
		if err := txn.Set(idxKey, []byte(hexID(rec.ID))); err != nil {
			return err
		}
		t = rec.toDomain()
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &t, created, nil
}

// ListTagUsage returns every tag with its item count, ordered by key.
func (s *Store) ListTagUsage(ctx context.Context) ([]domain.TagUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(tagPrefix)
	usage := []domain.TagUsage{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec tagRecord
			if err := getJSON(txn, it.Item().Key(), &rec); err != nil {
				return err
			}
			itemKeys := scanPrefix(itemPrefix, hexID(rec.ID))
			usage = append(usage, domain.TagUsage{Tag: rec.toDomain(), ItemCount: countPrefix(txn, itemKeys)})
			releaseKey(itemKeys)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Key != usage[j].Key {
			return usage[i].Key < usage[j].Key
		}
		return usage[i].ID < usage[j].ID
	})
	return usage, nil
}

// CountTags returns the number of tags.
func (s *Store) CountTags(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, []byte(tagPrefix))
		return nil
	})
	return n, err
}

// DeleteTag deletes a tag, its key index entry and every tagged item pointing
// at it in one transaction. Returns the number of tagged items removed.
func (s *Store) DeleteTag(ctx context.Context, id int64) (int, error) {
	var detached int

	err := s.update(ctx, func(txn *badger.Txn) error {
		detached = 0
		rec, err := s.getTagInTxn(txn, id)
		if err != nil {
			return err
		}

		tagHex := hexID(id)
		prefix := scanPrefix(itemPrefix, tagHex)
		defer releaseKey(prefix)

		for _, key := range keysWithPrefix(txn, prefix) {
			// item:{tag}:{ct}:{obj}
			ctHex, objHex, ok := strings.Cut(string(key[len(prefix):]), ":")
			if !ok {
				return fmt.Errorf("malformed tagged item key %q", key)
			}
			if err := s.deleteItemInTxn(txn, key, tagHex, ctHex, objHex); err != nil {
				return err
			}
			detached++
		}

		if err := txn.Delete(makeKey(tagPrefix, tagHex)); err != nil {
			return err
		}
		return txn.Delete(makeKey(tagByKeyPrefix, rec.Key))
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}

// deleteItemInTxn removes the item record at itemKey and both of its indexes.
// itemKey must not be a pooled key.
func (s *Store) deleteItemInTxn(txn *badger.Txn, itemKey []byte, tagHex, ctHex, objHex string) error {
	var rec itemRecord
	if err := getJSON(txn, itemKey, &rec); err != nil {
		return err
	}

	refKey := makeKey(refPrefix, ctHex, objHex, hexID(rec.Seq))
	objKey := makeKey(objectPrefix, ctHex, tagHex, objHex)

	for _, k := range [][]byte{refKey, objKey, itemKey} {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// AddTaggedItem associates a tag with an entity. An existing association is
// left untouched and reports created=false. Unknown tags or content types are
// store.ErrConflict, matching a foreign key failure.
func (s *Store) AddTaggedItem(ctx context.Context, tagID int64, ref domain.Ref) (bool, error) {
	var created bool

	err := s.update(ctx, func(txn *badger.Txn) error {
		created = false
		tagHex, ctHex, objHex := hexID(tagID), hexID(ref.ContentTypeID), hexID(ref.ObjectID)

		itemKey := makeKey(itemPrefix, tagHex, ctHex, objHex)
		if ok, err := exists(txn, itemKey); err != nil || ok {
			return err
		}

		if err := s.requireParents(txn, tagHex, ctHex); err != nil {
			return err
		}

		seq, err := nextID(s.itemSeq)
		if err != nil {
			return err
		}
		if err := setJSON(txn, itemKey, itemRecord{Seq: seq, CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}

		if err := txn.Set(makeKey(refPrefix, ctHex, objHex, hexID(seq)), []byte(tagHex)); err != nil {
			return err
		}
		if err := txn.Set(makeKey(objectPrefix, ctHex, tagHex, objHex), nil); err != nil {
			return err
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (s *Store) requireParents(txn *badger.Txn, tagHex, ctHex string) error {
	tagKey := buildKey(tagPrefix, tagHex)
	defer releaseKey(tagKey)
	ctKey := buildKey(contentTypePrefix, ctHex)
	defer releaseKey(ctKey)

	for what, key := range map[string][]byte{"tag": tagKey, "content type": ctKey} {
		ok, err := exists(txn, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("insert tagged item: unknown %s: %w", what, store.ErrConflict)
		}
	}
	return nil
}

// RemoveTaggedItem deletes one association and reports whether it existed.
func (s *Store) RemoveTaggedItem(ctx context.Context, tagID int64, ref domain.Ref) (bool, error) {
	var removed bool

	err := s.update(ctx, func(txn *badger.Txn) error {
		removed = false
		tagHex, ctHex, objHex := hexID(tagID), hexID(ref.ContentTypeID), hexID(ref.ObjectID)

		itemKey := makeKey(itemPrefix, tagHex, ctHex, objHex)
		err := s.deleteItemInTxn(txn, itemKey, tagHex, ctHex, objHex)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// refTagIDs returns the entity's tag IDs in insertion order.
func refTagIDs(txn *badger.Txn, ref domain.Ref) ([]int64, error) {
	prefix := scanPrefix(refPrefix, hexID(ref.ContentTypeID), hexID(ref.ObjectID))
	defer releaseKey(prefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []int64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var id int64
		err := it.Item().Value(func(val []byte) error {
			var err error
			id, err = parseHexID(string(val))
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TagsFor returns the tags attached to an entity in tagged-item insertion order.
func (s *Store) TagsFor(ctx context.Context, ref domain.Ref, offset, limit int) ([]domain.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tags := []domain.Tag{}
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := refTagIDs(txn, ref)
		if err != nil {
			return err
		}
		for _, id := range store.Window(ids, offset, limit) {
			rec, err := s.getTagInTxn(txn, id)
			if err != nil {
				return err
			}
			tags = append(tags, rec.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tags for %s: %w", ref, err)
	}
	return tags, nil
}

// CountTagsFor returns how many tags an entity carries.
func (s *Store) CountTagsFor(ctx context.Context, ref domain.Ref) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := scanPrefix(refPrefix, hexID(ref.ContentTypeID), hexID(ref.ObjectID))
		defer releaseKey(prefix)
		n = countPrefix(txn, prefix)
		return nil
	})
	return n, err
}

// ObjectIDsFor returns the IDs of entities of a content type carrying a tag, ascending.
func (s *Store) ObjectIDsFor(ctx context.Context, contentTypeID, tagID int64, offset, limit int) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := []int64{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := scanPrefix(objectPrefix, hexID(contentTypeID), hexID(tagID))
		defer releaseKey(prefix)

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit >= 0 && len(ids) >= limit {
				break
			}
			id, err := parseHexID(string(it.Item().Key()[len(prefix):]))
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("object ids: %w", err)
	}
	return ids, nil
}

// CountObjectIDsFor returns how many entities of a content type carry a tag.
func (s *Store) CountObjectIDsFor(ctx context.Context, contentTypeID, tagID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := scanPrefix(objectPrefix, hexID(contentTypeID), hexID(tagID))
		defer releaseKey(prefix)
		n = countPrefix(txn, prefix)
		return nil
	})
	return n, err
}

// RemoveTaggedItemsFor deletes every association of one entity.
func (s *Store) RemoveTaggedItemsFor(ctx context.Context, ref domain.Ref) (int, error) {
	var removed int

	err := s.update(ctx, func(txn *badger.Txn) error {
		removed = 0
		ids, err := refTagIDs(txn, ref)
		if err != nil {
			return err
		}

		ctHex, objHex := hexID(ref.ContentTypeID), hexID(ref.ObjectID)
		for _, tagID := range ids {
			tagHex := hexID(tagID)
			itemKey := makeKey(itemPrefix, tagHex, ctHex, objHex)
			if err := s.deleteItemInTxn(txn, itemKey, tagHex, ctHex, objHex); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("remove tagged items for %s: %w", ref, err)
	}
	return removed, nil
}
