package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefrontapp/storefront-server/internal/config"
	"github.com/storefrontapp/storefront-server/internal/store/kv"
)

// run executes storefrontctl against dataPath and returns its output.
func run(t *testing.T, dataPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--data-path", dataPath, "--log-level", "error", "--env-file", ""}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestSeed_Idempotent(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 collections, 6 products, 2 customers, 11 tag associations")

	out, err = run(t, dir, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 collections, 0 products, 0 customers, 0 tag associations")
}

func TestTags_AttachForEntities(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "seed")
	require.NoError(t, err)

	out, err := run(t, dir, "tags", "attach", "product", "1", "Gift")
	require.NoError(t, err)
	assert.Contains(t, out, `Attached "Gift" to product 1`)

	out, err = run(t, dir, "tags", "attach", "product", "1", "gift")
	require.NoError(t, err)
	assert.Contains(t, out, "already tagged")

	out, err = run(t, dir, "tags", "for", "product", "1")
	require.NoError(t, err)
	var tags []struct {
		Label string `json:"label"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tags))
	labels := make([]string, len(tags))
	for i, tag := range tags {
		labels[i] = tag.Label
	}
	assert.Contains(t, labels, "Gift")

	out, err = run(t, dir, "tags", "entities", "product", "Gift")
	require.NoError(t, err)
	var ids []int64
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.Equal(t, []int64{1}, ids)
}

func TestBadgerBackend_FailsFastWhileLocked(t *testing.T) {
	dir := t.TempDir()
	held, err := kv.Open(config.DataConfig{Path: dir}.BadgerPath(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { held.Close() })

	_, err = run(t, dir, "--tag-backend", "badger", "content-types")
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.ErrLocked)
	assert.Contains(t, err.Error(), "stop the server")
}

func TestTags_UnknownType(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "tags", "for", "widget", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown content type")
}

func TestTags_InvalidObjectID(t *testing.T) {
	_, err := run(t, t.TempDir(), "tags", "for", "product", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid object id")
}

func TestTags_DetachAndDelete(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "seed")
	require.NoError(t, err)

	out, err := run(t, dir, "tags", "detach", "product", "1", "Nope")
	require.NoError(t, err)
	assert.Contains(t, out, "was not tagged")

	out, err = run(t, dir, "tags", "list")
	require.NoError(t, err)
	var usage []struct {
		ID        int64  `json:"id"`
		Label     string `json:"label"`
		ItemCount int    `json:"item_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &usage))
	require.NotEmpty(t, usage)

	var vegan int64
	for _, u := range usage {
		if u.Label == "Vegan" {
			vegan = u.ID
			assert.Equal(t, 3, u.ItemCount)
		}
	}
	require.NotZero(t, vegan)

	out, err = run(t, dir, "tags", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted tag 1")

	out, err = run(t, dir, "tags", "entities", "product", "Fresh")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestContentTypes(t *testing.T) {
	out, err := run(t, t.TempDir(), "content-types")
	require.NoError(t, err)

	var cts []struct {
		Model string `json:"model"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cts))
	require.Len(t, cts, 5)
	assert.Equal(t, "product", cts[0].Model)
}
