package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/internal/http"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// AttachmentsClient implements growi.AttachmentsClient.
type AttachmentsClient struct {
	httpClient *http.Client
	pages      *PagesClient
	obs        *observer
}

// NewAttachmentsClient creates a new attachments client.
func NewAttachmentsClient(httpClient *http.Client, pages *PagesClient, obs *observer) *AttachmentsClient {
	return &AttachmentsClient{
		httpClient: httpClient,
		pages:      pages,
		obs:        obs,
	}
}

// Attach implements growi.AttachmentsClient.Attach. The page is always
// resolved first and the upload is associated by page id.
func (c *AttachmentsClient) Attach(ctx context.Context, ref growi.PageRef, payload *growi.AttachmentPayload) (_ *growi.AttachmentReference, err error) {
	ctx, finish := c.obs.start(ctx, opAttach, ref)
	defer func() { finish(err) }()

	err = ref.Validate()
	if err != nil {
		return nil, growi.NewInvalidArgument(opAttach, err)
	}

	if payload == nil {
		return nil, growi.NewInvalidArgument(opAttach, growi.ErrPayloadRequired)
	}

	if strings.TrimSpace(payload.FileName) == "" {
		return nil, growi.NewInvalidArgument(opAttach, growi.ErrFileNameRequired)
	}

	page, err := c.pages.lookup(ctx, opAttach, ref)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeAttachment(page.ID, payload)
	if err != nil {
		return nil, growi.NewInvalidArgument(opAttach, err)
	}

	resp, err := call(opAttach, func() (*http.Response, error) {
		return c.httpClient.PostRaw(ctx, constants.APIPathAttachmentAdd, body, contentType)
	})
	if err != nil {
		return nil, err
	}

	var reply attachReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(opAttach, resp, err, "attachment response")
	}

	// The upload endpoint must confirm with ok:true; a bare 2xx is not enough.
	if reply.OK == nil || !*reply.OK {
		return nil, growi.NewOperationFailed(opAttach, resp.StatusCode, resp.Body, growi.ErrNotConfirmed)
	}

	if reply.Attachment == nil {
		return nil, growi.NewDecodeError(opAttach, resp.StatusCode, resp.Body, growi.ErrMissingAttachment)
	}

	attachment := reply.Attachment.reference()
	if attachment.PageID == "" {
		attachment.PageID = page.ID
	}

	c.obs.publish(ctx, &growi.PageEvent{
		Operation:  growi.PageAttached,
		PageID:     page.ID,
		Path:       page.Path,
		RevisionID: page.Revision.ID,
		Attachment: attachment.FilePathProxied,
	})

	return attachment, nil
}

// AttachFile implements growi.AttachmentsClient.AttachFile.
func (c *AttachmentsClient) AttachFile(ctx context.Context, ref growi.PageRef, filePath string, opts *growi.AttachFileOptions) (*growi.AttachmentReference, error) {
	payload, err := loadAttachment(filePath, opts)
	if err != nil {
		return nil, growi.NewInvalidArgument(opAttach, err)
	}

	return c.Attach(ctx, ref, payload)
}

func loadAttachment(filePath string, opts *growi.AttachFileOptions) (*growi.AttachmentPayload, error) {
	if opts == nil {
		opts = &growi.AttachFileOptions{}
	}

	cleanPath := filepath.Clean(filePath)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotRegularFile, cleanPath)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}

	fileName := opts.FileName
	if fileName == "" {
		fileName = filepath.Base(cleanPath)
	}

	return &growi.AttachmentPayload{
		FileName:   fileName,
		Data:       data,
		MIMEType:   detectMIMEType(fileName, opts.MIMEType),
		TargetPath: opts.TargetPath,
	}, nil
}

// detectMIMEType guesses from the extension and falls back to
// application/octet-stream.
func detectMIMEType(fileName, explicit string) string {
	if explicit != "" {
		return explicit
	}

	if guessed := mime.TypeByExtension(filepath.Ext(fileName)); guessed != "" {
		return guessed
	}

	return constants.DefaultMIMEType
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeAttachment builds the upload form: the file part "file", the page_id
// field and, when set, the path field.
func encodeAttachment(pageID string, payload *growi.AttachmentPayload) ([]byte, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	mimeType := payload.MIMEType
	if mimeType == "" {
		mimeType = detectMIMEType(payload.FileName, "")
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(payload.FileName)))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}

	_, err = part.Write(payload.Data)
	if err != nil {
		return nil, "", fmt.Errorf("writing file to form: %w", err)
	}

	err = writer.WriteField("page_id", pageID)
	if err != nil {
		return nil, "", fmt.Errorf("writing page_id field: %w", err)
	}

	if payload.TargetPath != "" {
		err = writer.WriteField("path", payload.TargetPath)
		if err != nil {
			return nil, "", fmt.Errorf("writing path field: %w", err)
		}
	}

	err = writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}
