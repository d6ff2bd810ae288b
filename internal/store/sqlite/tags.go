package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `t.id, t.label, t.label_key, t.created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
	)

	if err := scanner.Scan(&t.ID, &t.Label, &t.Key, &createdAt); err != nil {
		return nil, err
	}

	var err error
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// EnsureContentType returns the content type row, inserting it on first use.
func (s *Store) EnsureContentType(ctx context.Context, appLabel, model string) (domain.ContentType, error) {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO content_types (app_label, model) VALUES (?, ?)
		ON CONFLICT (app_label, model) DO NOTHING`,
		appLabel, model,
	); err != nil {
		return domain.ContentType{}, fmt.Errorf("insert content type: %w", err)
	}

	ct := domain.ContentType{AppLabel: appLabel, Model: model}
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM content_types WHERE app_label = ? AND model = ?`,
		appLabel, model,
	).Scan(&ct.ID)
	if err != nil {
		return domain.ContentType{}, fmt.Errorf("query content type: %w", err)
	}
	return ct, nil
}

// ListContentTypes returns all content types ordered by ID.
func (s *Store) ListContentTypes(ctx context.Context) ([]domain.ContentType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, app_label, model FROM content_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query content types: %w", err)
	}
	defer rows.Close()

	cts := []domain.ContentType{}
	for rows.Next() {
		var ct domain.ContentType
		if err := rows.Scan(&ct.ID, &ct.AppLabel, &ct.Model); err != nil {
			return nil, err
		}
		cts = append(cts, ct)
	}
	return cts, rows.Err()
}

// createTag inserts a tag. Returns store.ErrAlreadyExists on a duplicate key.
func (s *Store) createTag(ctx context.Context, t *domain.Tag) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (label, label_key, created_at)
		VALUES (?, ?, ?)`,
		t.Label,
		t.Key,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		return mapWriteError(err, "insert tag")
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetTag retrieves a tag by its ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.id = ?`, id)

	t, err := scanTag(row)
	if err != nil {
		return nil, notFound(err, "tag %d", id)
	}
	return t, nil
}

// GetTagByKey retrieves a tag by its normalized label key.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByKey(ctx context.Context, key string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.label_key = ?`, key)

	t, err := scanTag(row)
	if err != nil {
		return nil, notFound(err, "tag %q", key)
	}
	return t, nil
}

// FindOrCreateTag finds a tag by key or creates it with the given label.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTag(ctx context.Context, label, key string) (*domain.Tag, bool, error) {
	existing, err := s.GetTagByKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	t := &domain.Tag{
		Label:     label,
		Key:       key,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.createTag(ctx, t); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Race condition: another request created it.
			existing, err := s.GetTagByKey(ctx, key)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}

// ListTagUsage returns every tag with its tagged item count, ordered by label key.
func (s *Store) ListTagUsage(ctx context.Context) ([]domain.TagUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumns+`, COUNT(ti.id)
		FROM tags t
		LEFT JOIN tagged_items ti ON ti.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.label_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("query tag usage: %w", err)
	}
	defer rows.Close()

	usage := []domain.TagUsage{}
	for rows.Next() {
		var (
			u         domain.TagUsage
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Label, &u.Key, &createdAt, &u.ItemCount); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// CountTags returns the number of tags.
func (s *Store) CountTags(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tags: %w", err)
	}
	return n, nil
}

// DeleteTag deletes a tag; ON DELETE CASCADE removes its tagged items.
// Returns the number of tagged items removed, or store.ErrNotFound.
func (s *Store) DeleteTag(ctx context.Context, id int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var detached int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tagged_items WHERE tag_id = ?`, id,
	).Scan(&detached); err != nil {
		return 0, fmt.Errorf("count tagged items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("tag %d: %w", id, store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return detached, nil
}

// AddTaggedItem associates a tag with an entity. Inserting an association that
// already exists is a no-op and reports created=false.
func (s *Store) AddTaggedItem(ctx context.Context, tagID int64, ref domain.Ref) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO tagged_items (tag_id, content_type_id, object_id, created_at)
		VALUES (?, ?, ?, ?)`,
		tagID,
		ref.ContentTypeID,
		ref.ObjectID,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return false, mapWriteError(err, "insert tagged item")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveTaggedItem deletes one association and reports whether it existed.
func (s *Store) RemoveTaggedItem(ctx context.Context, tagID int64, ref domain.Ref) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM tagged_items
		WHERE tag_id = ? AND content_type_id = ? AND object_id = ?`,
		tagID, ref.ContentTypeID, ref.ObjectID,
	)
	if err != nil {
		return false, fmt.Errorf("delete tagged item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TagsFor returns the tags attached to an entity in tagged-item insertion order.
func (s *Store) TagsFor(ctx context.Context, ref domain.Ref, offset, limit int) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumns+`
		FROM tagged_items ti
		JOIN tags t ON t.id = ti.tag_id
		WHERE ti.content_type_id = ? AND ti.object_id = ?
		ORDER BY ti.id ASC
		LIMIT ? OFFSET ?`,
		ref.ContentTypeID, ref.ObjectID, sqlLimit(limit), offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query tags for %s: %w", ref, err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// CountTagsFor returns how many tags an entity carries.
func (s *Store) CountTagsFor(ctx context.Context, ref domain.Ref) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tagged_items
		WHERE content_type_id = ? AND object_id = ?`,
		ref.ContentTypeID, ref.ObjectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tags for %s: %w", ref, err)
	}
	return n, nil
}

// ObjectIDsFor returns the IDs of entities of a content type carrying a tag, ascending.
func (s *Store) ObjectIDsFor(ctx context.Context, contentTypeID, tagID int64, offset, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id FROM tagged_items
		WHERE content_type_id = ? AND tag_id = ?
		ORDER BY object_id ASC
		LIMIT ? OFFSET ?`,
		contentTypeID, tagID, sqlLimit(limit), offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query object ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountObjectIDsFor returns how many entities of a content type carry a tag.
func (s *Store) CountObjectIDsFor(ctx context.Context, contentTypeID, tagID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tagged_items
		WHERE content_type_id = ? AND tag_id = ?`,
		contentTypeID, tagID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count object ids: %w", err)
	}
	return n, nil
}

// RemoveTaggedItemsFor deletes every association of one entity.
func (s *Store) RemoveTaggedItemsFor(ctx context.Context, ref domain.Ref) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM tagged_items WHERE content_type_id = ? AND object_id = ?`,
		ref.ContentTypeID, ref.ObjectID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete tagged items for %s: %w", ref, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
