package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

func TestAttachments_Attach(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	seeded := server.Seed("/files", "body")
	client := newTestClient(t, server.URL)

	attachment, err := client.Attachments().Attach(context.Background(), growi.ByPath("/files"), &growi.AttachmentPayload{
		FileName:   `report "q3".csv`,
		Data:       []byte("a,b\n1,2\n"),
		MIMEType:   "text/csv",
		TargetPath: "/files/report",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, attachment.ID)
	assert.Equal(t, seeded.ID, attachment.PageID)
	assert.Equal(t, "/attachment/"+attachment.ID, attachment.FilePathProxied)
	assert.Equal(t, `report "q3".csv`, attachment.OriginalName)
	assert.Equal(t, int64(8), attachment.FileSize)

	uploads := server.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, seeded.ID, uploads[0].PageID)
	assert.Equal(t, "/files/report", uploads[0].Path)
	assert.Equal(t, "text/csv", uploads[0].MIMEType)
	assert.Equal(t, "a,b\n1,2\n", string(uploads[0].Data))

	calls := server.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/_api/v3/page", calls[0].Path)
	assert.Equal(t, "/_api/attachments.add", calls[1].Path)
	assert.Equal(t, seeded.ID, calls[1].Form.Get("page_id"))
}

func TestAttachments_AttachByIDWithoutTargetPath(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	seeded := server.Seed("/files", "body")
	client := newTestClient(t, server.URL)

	_, err := client.Attachments().Attach(context.Background(), growi.ByID(seeded.ID), &growi.AttachmentPayload{
		FileName: "blob",
		Data:     []byte{0x00, 0x01},
	})
	require.NoError(t, err)

	uploads := server.Uploads()
	require.Len(t, uploads, 1)
	assert.Empty(t, uploads[0].Path)
	assert.Equal(t, constants.DefaultMIMEType, uploads[0].MIMEType)

	calls := server.Calls()
	require.Len(t, calls, 2)
	assert.False(t, calls[1].Form.Has("path"))
}

func TestAttachments_NotConfirmed(t *testing.T) {
	t.Parallel()

	t.Run("ok false", func(t *testing.T) {
		t.Parallel()

		server := newFakeServer(t)
		server.FailAttach = true
		server.Seed("/files", "body")
		client := newTestClient(t, server.URL)

		_, err := client.Attachments().Attach(context.Background(), growi.ByPath("/files"), &growi.AttachmentPayload{
			FileName: "a.txt",
			Data:     []byte("a"),
		})
		require.Error(t, err)
		assert.True(t, growi.IsOperationFailed(err))
		assert.Equal(t, http.StatusOK, growi.StatusCodeOf(err))
		assert.Empty(t, server.Uploads())
	})

	t.Run("ok missing", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path == "/_api/v3/page" {
				_, _ = writer.Write([]byte(`{"page":{"_id":"p1","path":"/files","revision":"r1"}}`))

				return
			}

			_, _ = writer.Write([]byte(`{"attachment":{"_id":"a1","filePathProxied":"/attachment/a1"}}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)

		_, err := client.Attachments().Attach(context.Background(), growi.ByPath("/files"), &growi.AttachmentPayload{
			FileName: "a.txt",
			Data:     []byte("a"),
		})
		require.Error(t, err)
		assert.True(t, growi.IsOperationFailed(err))
		assert.ErrorIs(t, err, growi.ErrNotConfirmed)
	})
}

func TestAttachments_MissingPage(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	client := newTestClient(t, server.URL)

	_, err := client.Attachments().Attach(context.Background(), growi.ByPath("/nope"), &growi.AttachmentPayload{
		FileName: "a.txt",
		Data:     []byte("a"),
	})
	require.Error(t, err)
	assert.True(t, growi.IsNotFound(err))
	assert.Equal(t, 1, server.CallCount())
}

func TestAttachments_InvalidPayload(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.Attachments().Attach(ctx, growi.ByPath("/files"), nil)
	require.ErrorIs(t, err, growi.ErrPayloadRequired)

	_, err = client.Attachments().Attach(ctx, growi.ByPath("/files"), &growi.AttachmentPayload{Data: []byte("a")})
	require.ErrorIs(t, err, growi.ErrFileNameRequired)

	_, err = client.Attachments().AttachFile(ctx, growi.ByPath("/files"), filepath.Join(t.TempDir(), "missing.txt"), nil)
	require.Error(t, err)
	assert.True(t, growi.IsInvalidArgument(err))

	_, err = client.Attachments().AttachFile(ctx, growi.ByPath("/files"), t.TempDir(), nil)
	require.ErrorIs(t, err, constants.ErrNotRegularFile)

	assert.Equal(t, 0, server.CallCount())
}

func TestAttachments_AttachFile(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t)
	server.Seed("/files", "body")
	client := newTestClient(t, server.URL)

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "diagram.png")
	require.NoError(t, os.WriteFile(imagePath, []byte("\x89PNG"), 0o600))

	attachment, err := client.Attachments().AttachFile(context.Background(), growi.ByPath("/files"), imagePath, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, attachment.FilePathProxied)

	rawPath := filepath.Join(dir, "data.unknownext")
	require.NoError(t, os.WriteFile(rawPath, []byte("raw"), 0o600))

	_, err = client.Attachments().AttachFile(context.Background(), growi.ByPath("/files"), rawPath, &growi.AttachFileOptions{
		FileName: "renamed.bin",
	})
	require.NoError(t, err)

	uploads := server.Uploads()
	require.Len(t, uploads, 2)

	assert.Equal(t, "diagram.png", uploads[0].FileName)
	assert.Equal(t, "image/png", uploads[0].MIMEType)
	assert.Equal(t, "\x89PNG", string(uploads[0].Data))

	assert.Equal(t, "renamed.bin", uploads[1].FileName)
	assert.Equal(t, constants.DefaultMIMEType, uploads[1].MIMEType)
}

func TestDetectMIMEType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/png", detectMIMEType("a.png", ""))
	assert.Equal(t, "application/x-custom", detectMIMEType("a.png", "application/x-custom"))
	assert.Equal(t, constants.DefaultMIMEType, detectMIMEType("noext", ""))
}
