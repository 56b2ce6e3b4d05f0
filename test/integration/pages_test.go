//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

// Pages created here are left in place; the wiki API offers no deletion.

func TestPageWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	client := config.NewClient(t)
	ctx := context.Background()
	path := config.TestPath("workflow")

	exists, err := client.Pages().Exists(ctx, growi.ByPath(path))
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := client.Pages().Create(ctx, path, "# Integration\n", growi.DefaultGrant)
	require.NoError(t, err)
	assert.Equal(t, path, created.Path)

	_, err = client.Pages().Create(ctx, path, "again", growi.DefaultGrant)
	require.Error(t, err)
	assert.True(t, growi.IsAlreadyExists(err), "got %v", err)

	updated, err := client.Pages().Update(ctx, &growi.MutationRequest{
		Ref:  growi.ByID(created.ID),
		Body: "# Integration\n\nupdated",
	})
	require.NoError(t, err)
	assert.NotEqual(t, created.RevisionID, updated.RevisionID)

	page, err := client.Pages().Get(ctx, growi.ByPath(path))
	require.NoError(t, err)
	assert.Contains(t, page.Revision.Body, "updated")

	attachment, err := client.Attachments().Attach(ctx, growi.ByPath(path), &growi.AttachmentPayload{
		FileName: "integration.txt",
		Data:     []byte("integration"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, attachment.FilePathProxied)

	newPath := path + "-renamed"

	renamed, err := client.Pages().Rename(ctx, &growi.MutationRequest{
		Ref:     growi.ByPath(path),
		NewPath: newPath,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, renamed.ID)

	list, err := client.Pages().ListByPath(ctx, config.PathRoot, &growi.ListOptions{Limit: 100})
	require.NoError(t, err)
	assert.NotEmpty(t, list.Pages)

	tags, err := client.Tags().ByPage(ctx, growi.ByID(created.ID))
	require.NoError(t, err)
	assert.NotNil(t, tags)
}

func TestMissingPage(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	client := config.NewClient(t)

	_, err := client.Pages().Resolve(context.Background(), growi.ByPath(config.TestPath("missing")))
	require.Error(t, err)
	assert.True(t, growi.IsNotFound(err), "got %v", err)
}

func TestBadToken(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	config.Token = "not-a-real-token"
	client := config.NewClient(t)

	_, err := client.Pages().Resolve(context.Background(), growi.ByPath(config.PathRoot))
	require.Error(t, err)
	assert.True(t, growi.IsUnauthorized(err) || growi.IsNotFound(err), "got %v", err)
}
