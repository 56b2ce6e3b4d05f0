package client

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

// wireRef is a reference the API sends either as a bare id string or as the
// populated document.
type wireRef struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (r *wireRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	}

	type plain wireRef

	return json.Unmarshal(data, (*plain)(r))
}

// display prefers the username over the raw id.
func (r wireRef) display() string {
	if r.Username != "" {
		return r.Username
	}

	return r.ID
}

type wireRevision struct {
	ID        string    `json:"_id"`
	Body      string    `json:"body"`
	Author    wireRef   `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *wireRevision) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	}

	type plain wireRevision

	return json.Unmarshal(data, (*plain)(r))
}

type wirePage struct {
	ID             string       `json:"_id"`
	Path           string       `json:"path"`
	Grant          int          `json:"grant"`
	Status         string       `json:"status"`
	Revision       wireRevision `json:"revision"`
	Creator        wireRef      `json:"creator"`
	LastUpdateUser wireRef      `json:"lastUpdateUser"`
	CommentCount   int          `json:"commentCount"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func (p *wirePage) descriptor() *growi.PageDescriptor {
	return &growi.PageDescriptor{ID: p.ID, Path: p.Path, RevisionID: p.Revision.ID}
}

func (p *wirePage) page() growi.Page {
	return growi.Page{
		ID:     p.ID,
		Path:   p.Path,
		Grant:  growi.GrantLevel(p.Grant),
		Status: p.Status,
		Revision: growi.Revision{
			ID:        p.Revision.ID,
			Body:      p.Revision.Body,
			Author:    p.Revision.Author.display(),
			CreatedAt: p.Revision.CreatedAt,
		},
		Creator:        p.Creator.display(),
		LastUpdateUser: p.LastUpdateUser.display(),
		CommentCount:   p.CommentCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// pageReply covers the page lookup, create, update and rename responses.
type pageReply struct {
	Page     *wirePage     `json:"page"`
	Revision *wireRevision `json:"revision"`
}

type pageListReply struct {
	Pages      []wirePage `json:"pages"`
	TotalCount *int       `json:"totalCount"`
}

type wireAttachment struct {
	ID                  string  `json:"_id"`
	Page                wireRef `json:"page"`
	FileName            string  `json:"fileName"`
	OriginalName        string  `json:"originalName"`
	FileFormat          string  `json:"fileFormat"`
	FileSize            int64   `json:"fileSize"`
	FilePathProxied     string  `json:"filePathProxied"`
	DownloadPathProxied string  `json:"downloadPathProxied"`
}

func (a *wireAttachment) reference() *growi.AttachmentReference {
	return &growi.AttachmentReference{
		ID:                  a.ID,
		PageID:              a.Page.ID,
		FileName:            a.FileName,
		OriginalName:        a.OriginalName,
		FileFormat:          a.FileFormat,
		FileSize:            a.FileSize,
		FilePathProxied:     a.FilePathProxied,
		DownloadPathProxied: a.DownloadPathProxied,
	}
}

type attachReply struct {
	OK         *bool           `json:"ok"`
	Attachment *wireAttachment `json:"attachment"`
}

type tagListReply struct {
	Data       []growi.Tag `json:"data"`
	TotalCount *int        `json:"totalCount"`
}

type pageTagsReply struct {
	Tags []string `json:"tags"`
}
