package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/storefrontapp/storefront-server/internal/domain"
	"github.com/storefrontapp/storefront-server/internal/store"
)

func mustContentType(t *testing.T, s *Store, model string) domain.ContentType {
	t.Helper()
	ct, err := s.EnsureContentType(context.Background(), "store", model)
	if err != nil {
		t.Fatalf("ensure content type %s: %v", model, err)
	}
	return ct
}

func mustTag(t *testing.T, s *Store, label, key string) *domain.Tag {
	t.Helper()
	tag, _, err := s.FindOrCreateTag(context.Background(), label, key)
	if err != nil {
		t.Fatalf("find or create tag %q: %v", label, err)
	}
	return tag
}

func TestEnsureContentType_Idempotent(t *testing.T) {
	s := newTestStore(t)

	product := mustContentType(t, s, "product")
	customer := mustContentType(t, s, "customer")
	again := mustContentType(t, s, "product")

	if product.ID == customer.ID {
		t.Errorf("distinct content types share id %d", product.ID)
	}
	if again.ID != product.ID {
		t.Errorf("expected stable id %d, got %d", product.ID, again.ID)
	}

	all, err := s.ListContentTypes(context.Background())
	if err != nil {
		t.Fatalf("list content types: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 content types, got %d", len(all))
	}
}

func TestFindOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, created, err := s.FindOrCreateTag(ctx, "On Sale", "on sale")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Error("expected created=true for new tag")
	}

	again, created, err := s.FindOrCreateTag(ctx, "ON SALE", "on sale")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if created {
		t.Error("expected created=false for existing tag")
	}
	if again.ID != tag.ID {
		t.Errorf("expected id %d, got %d", tag.ID, again.ID)
	}
	if again.Label != "On Sale" {
		t.Errorf("expected first spelling to be kept, got %q", again.Label)
	}
}

func TestGetTag_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTag(context.Background(), 999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = s.GetTagByKey(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTaggedItems_TypeIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := mustContentType(t, s, "product")
	customer := mustContentType(t, s, "customer")
	sale := mustTag(t, s, "sale", "sale")
	vip := mustTag(t, s, "vip", "vip")

	if _, err := s.AddTaggedItem(ctx, sale.ID, domain.Ref{ContentTypeID: product.ID, ObjectID: 1}); err != nil {
		t.Fatalf("tag product: %v", err)
	}
	if _, err := s.AddTaggedItem(ctx, vip.ID, domain.Ref{ContentTypeID: customer.ID, ObjectID: 1}); err != nil {
		t.Fatalf("tag customer: %v", err)
	}

	productTags, err := s.TagsFor(ctx, domain.Ref{ContentTypeID: product.ID, ObjectID: 1}, 0, -1)
	if err != nil {
		t.Fatalf("tags for product: %v", err)
	}
	if len(productTags) != 1 || productTags[0].Label != "sale" {
		t.Errorf("expected [sale] for product 1, got %+v", productTags)
	}

	customerTags, err := s.TagsFor(ctx, domain.Ref{ContentTypeID: customer.ID, ObjectID: 1}, 0, -1)
	if err != nil {
		t.Fatalf("tags for customer: %v", err)
	}
	if len(customerTags) != 1 || customerTags[0].Label != "vip" {
		t.Errorf("expected [vip] for customer 1, got %+v", customerTags)
	}

	untagged, err := s.TagsFor(ctx, domain.Ref{ContentTypeID: product.ID, ObjectID: 3}, 0, -1)
	if err != nil {
		t.Fatalf("tags for untagged: %v", err)
	}
	if untagged == nil || len(untagged) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", untagged)
	}
}

func TestAddTaggedItem_DuplicateIsIgnored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := mustContentType(t, s, "product")
	sale := mustTag(t, s, "sale", "sale")
	ref := domain.Ref{ContentTypeID: product.ID, ObjectID: 7}

	created, err := s.AddTaggedItem(ctx, sale.ID, ref)
	if err != nil || !created {
		t.Fatalf("first add: created=%v err=%v", created, err)
	}
	created, err = s.AddTaggedItem(ctx, sale.ID, ref)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if created {
		t.Error("expected created=false for duplicate")
	}

	n, err := s.CountTagsFor(ctx, ref)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 association, got %d", n)
	}
}

func TestTagsFor_InsertionOrderAndRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := mustContentType(t, s, "product")
	ref := domain.Ref{ContentTypeID: product.ID, ObjectID: 1}

	// Tags are created in one order and attached in another.
	labels := []string{"zeta", "alpha", "mid"}
	for _, l := range labels {
		mustTag(t, s, l, l)
	}
	for _, l := range []string{"mid", "zeta", "alpha"} {
		tag := mustTag(t, s, l, l)
		if _, err := s.AddTaggedItem(ctx, tag.ID, ref); err != nil {
			t.Fatalf("attach %s: %v", l, err)
		}
	}

	all, err := s.TagsFor(ctx, ref, 0, -1)
	if err != nil {
		t.Fatalf("tags for: %v", err)
	}
	want := []string{"mid", "zeta", "alpha"}
	for i, tag := range all {
		if tag.Label != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], tag.Label)
		}
	}

	window, err := s.TagsFor(ctx, ref, 1, 1)
	if err != nil {
		t.Fatalf("tags for window: %v", err)
	}
	if len(window) != 1 || window[0].Label != "zeta" {
		t.Errorf("expected [zeta], got %+v", window)
	}
}

func TestObjectIDsFor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := mustContentType(t, s, "product")
	customer := mustContentType(t, s, "customer")
	sale := mustTag(t, s, "sale", "sale")

	for _, id := range []int64{9, 2, 5} {
		if _, err := s.AddTaggedItem(ctx, sale.ID, domain.Ref{ContentTypeID: product.ID, ObjectID: id}); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}
	if _, err := s.AddTaggedItem(ctx, sale.ID, domain.Ref{ContentTypeID: customer.ID, ObjectID: 4}); err != nil {
		t.Fatalf("attach customer: %v", err)
	}

	ids, err := s.ObjectIDsFor(ctx, product.ID, sale.ID, 0, -1)
	if err != nil {
		t.Fatalf("object ids: %v", err)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 5 || ids[2] != 9 {
		t.Errorf("expected [2 5 9], got %v", ids)
	}

	n, err := s.CountObjectIDsFor(ctx, product.ID, sale.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}

func TestDeleteTag_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := mustContentType(t, s, "product")
	sale := mustTag(t, s, "sale", "sale")
	keep := mustTag(t, s, "new", "new")

	for _, id := range []int64{1, 2} {
		ref := domain.Ref{ContentTypeID: product.ID, ObjectID: id}
		if _, err := s.AddTaggedItem(ctx, sale.ID, ref); err != nil {
			t.Fatalf("attach sale: %v", err)
		}
		if _, err := s.AddTaggedItem(ctx, keep.ID, ref); err != nil {
			t.Fatalf("attach new: %v", err)
		}
	}

	detached, err := s.DeleteTag(ctx, sale.ID)
	if err != nil {
		t.Fatalf("delete tag: %v", err)
	}
	if detached != 2 {
		t.Errorf("expected 2 detached, got %d", detached)
	}

	for _, id := range []int64{1, 2} {
		tags, err := s.TagsFor(ctx, domain.Ref{ContentTypeID: product.ID, ObjectID: id}, 0, -1)
		if err != nil {
			t.Fatalf("tags for: %v", err)
		}
		if len(tags) != 1 || tags[0].ID != keep.ID {
			t.Errorf("product %d: expected only %q, got %+v", id, keep.Label, tags)
		}
	}

	if _, err := s.DeleteTag(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestRemoveTaggedItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := mustContentType(t, s, "product")
	sale := mustTag(t, s, "sale", "sale")
	vip := mustTag(t, s, "vip", "vip")
	ref := domain.Ref{ContentTypeID: product.ID, ObjectID: 1}

	for _, tag := range []*domain.Tag{sale, vip} {
		if _, err := s.AddTaggedItem(ctx, tag.ID, ref); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}

	removed, err := s.RemoveTaggedItem(ctx, sale.ID, ref)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	removed, err = s.RemoveTaggedItem(ctx, sale.ID, ref)
	if err != nil || removed {
		t.Errorf("second remove: removed=%v err=%v", removed, err)
	}

	n, err := s.RemoveTaggedItemsFor(ctx, ref)
	if err != nil {
		t.Fatalf("remove all: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}

	// The tag itself survives.
	if _, err := s.GetTag(ctx, vip.ID); err != nil {
		t.Errorf("tag should survive detach: %v", err)
	}
}

func TestListTagUsage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	product := mustContentType(t, s, "product")
	beta := mustTag(t, s, "Beta", "beta")
	mustTag(t, s, "alpha", "alpha")

	for _, id := range []int64{1, 2} {
		if _, err := s.AddTaggedItem(ctx, beta.ID, domain.Ref{ContentTypeID: product.ID, ObjectID: id}); err != nil {
			t.Fatalf("attach: %v", err)
		}
	}

	usage, err := s.ListTagUsage(ctx)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(usage))
	}
	if usage[0].Key != "alpha" || usage[0].ItemCount != 0 {
		t.Errorf("expected alpha with 0 items first, got %+v", usage[0])
	}
	if usage[1].Key != "beta" || usage[1].ItemCount != 2 {
		t.Errorf("expected beta with 2 items, got %+v", usage[1])
	}

	count, err := s.CountTags(ctx)
	if err != nil || count != 2 {
		t.Errorf("CountTags = %d, %v", count, err)
	}
}
