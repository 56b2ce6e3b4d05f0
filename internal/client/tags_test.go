package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

func TestTags_List(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	server.Seed("/a", "a", "go", "wiki")
	server.Seed("/b", "b", "go")
	server.Seed("/c", "c")
	client := newTestClient(t, server.URL)

	list, err := client.Tags().List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)
	assert.Equal(t, []growi.Tag{{Name: "go", Count: 2}, {Name: "wiki", Count: 1}}, list.Tags)

	list, err = client.Tags().List(context.Background(), &growi.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)
	assert.Equal(t, []growi.Tag{{Name: "wiki", Count: 1}}, list.Tags)

	calls := server.Calls()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].Query.Has("limit"))
	assert.False(t, calls[0].Query.Has("offset"))
	assert.Equal(t, "1", calls[1].Query.Get("limit"))
	assert.Equal(t, "1", calls[1].Query.Get("offset"))
}

func TestTagListQuery(t *testing.T) {
	t.Parallel()

	assert.Empty(t, tagListQuery(nil))
	assert.Empty(t, tagListQuery(&growi.ListOptions{Limit: -1}))

	query := tagListQuery(&growi.ListOptions{Limit: 5, Offset: 10})
	assert.Equal(t, "5", query.Get("limit"))
	assert.Equal(t, "10", query.Get("offset"))
}

func TestTags_ListEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	list, err := client.Tags().List(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, list.Tags)
	assert.Empty(t, list.Tags)
	assert.Equal(t, 0, list.TotalCount)
}

func TestTags_ByPage(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	seeded := server.Seed("/tagged", "body", "alpha", "beta")
	server.Seed("/untagged", "body")
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	tags, err := client.Tags().ByPage(ctx, growi.ByPath("/tagged"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, tags)

	tags, err = client.Tags().ByPage(ctx, growi.ByID(seeded.ID))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, tags)

	tags, err = client.Tags().ByPage(ctx, growi.ByPath("/untagged"))
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = client.Tags().ByPage(ctx, growi.ByPath("/missing"))
	require.Error(t, err)
	assert.True(t, growi.IsNotFound(err))

	for _, call := range server.Calls() {
		if call.Path == "/_api/pages.getPageTag" {
			assert.Equal(t, seeded.ID, call.Query.Get("pageId"))
		}
	}
}
