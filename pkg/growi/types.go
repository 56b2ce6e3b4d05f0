package growi

import (
	"strings"
	"time"
)

// GrantLevel is the visibility tier the wiki assigns to a page. The client
// forwards it verbatim; the named values are the tiers GROWI ships with.
type GrantLevel int

// Well-known grant levels.
const (
	GrantPublic     GrantLevel = 1
	GrantRestricted GrantLevel = 2
	GrantSpecified  GrantLevel = 3
	GrantOwner      GrantLevel = 4
	GrantUserGroup  GrantLevel = 5
)

// DefaultGrant is used when a caller leaves the grant unset.
const DefaultGrant = GrantPublic

// PageRef identifies a page either by path or by id, never both.
// Construct one with ByPath or ByID.
type PageRef struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	ID   string `json:"id,omitempty"   yaml:"id,omitempty"`
}

// ByPath references a page by its human-readable path.
func ByPath(path string) PageRef {
	return PageRef{Path: path}
}

// ByID references a page by its internal id.
func ByID(id string) PageRef {
	return PageRef{ID: id}
}

// Validate enforces that exactly one identifier is set.
func (r PageRef) Validate() error {
	hasPath := strings.TrimSpace(r.Path) != ""
	hasID := strings.TrimSpace(r.ID) != ""

	switch {
	case hasPath && hasID:
		return ErrPageRefAmbiguous
	case !hasPath && !hasID:
		return ErrPageRefEmpty
	default:
		return nil
	}
}

// IsPath reports whether the ref addresses the page by path.
func (r PageRef) IsPath() bool {
	return strings.TrimSpace(r.Path) != ""
}

// String implements fmt.Stringer.
func (r PageRef) String() string {
	if r.IsPath() {
		return r.Path
	}

	return "id:" + r.ID
}

// PageDescriptor is the identity and version of a page at the moment it was
// resolved. A descriptor is used by at most one mutation and never cached.
type PageDescriptor struct {
	ID         string `json:"id"          yaml:"id"`
	Path       string `json:"path"        yaml:"path"`
	RevisionID string `json:"revision_id" yaml:"revision_id"`
}

// Revision is a version of a page body.
type Revision struct {
	ID        string    `json:"id"                   yaml:"id"`
	Body      string    `json:"body,omitempty"       yaml:"body,omitempty"`
	Author    string    `json:"author,omitempty"     yaml:"author,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"  yaml:"created_at,omitempty"`
}

// Page is the full page record returned by a lookup.
type Page struct {
	ID             string     `json:"id"                         yaml:"id"`
	Path           string     `json:"path"                       yaml:"path"`
	Grant          GrantLevel `json:"grant"                      yaml:"grant"`
	Status         string     `json:"status,omitempty"           yaml:"status,omitempty"`
	Revision       Revision   `json:"revision"                   yaml:"revision"`
	Creator        string     `json:"creator,omitempty"          yaml:"creator,omitempty"`
	LastUpdateUser string     `json:"last_update_user,omitempty" yaml:"last_update_user,omitempty"`
	CommentCount   int        `json:"comment_count"              yaml:"comment_count"`
	CreatedAt      time.Time  `json:"created_at,omitzero"        yaml:"created_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at,omitzero"        yaml:"updated_at,omitempty"`
}

// Descriptor returns the identity and version portion of the page.
func (p *Page) Descriptor() *PageDescriptor {
	return &PageDescriptor{ID: p.ID, Path: p.Path, RevisionID: p.Revision.ID}
}

// MutationRequest describes an update or rename of an existing page.
type MutationRequest struct {
	Ref              PageRef
	Body             string
	Grant            GrantLevel
	NewPath          string
	PreserveMetadata bool
}

// AttachmentPayload is a file to upload. Data is borrowed for the duration of the call.
type AttachmentPayload struct {
	FileName   string
	Data       []byte
	MIMEType   string
	TargetPath string
}

// AttachmentReference describes an uploaded file.
type AttachmentReference struct {
	ID                  string `json:"id"                              yaml:"id"`
	PageID              string `json:"page_id"                         yaml:"page_id"`
	FileName            string `json:"file_name"                       yaml:"file_name"`
	OriginalName        string `json:"original_name"                   yaml:"original_name"`
	FileFormat          string `json:"file_format,omitempty"           yaml:"file_format,omitempty"`
	FileSize            int64  `json:"file_size"                       yaml:"file_size"`
	FilePathProxied     string `json:"file_path_proxied"               yaml:"file_path_proxied"`
	DownloadPathProxied string `json:"download_path_proxied,omitempty" yaml:"download_path_proxied,omitempty"`
}

// Tag is a tag with the number of pages carrying it.
type Tag struct {
	Name  string `json:"name"  yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// TagList is one window of the tag listing.
type TagList struct {
	Tags       []Tag `json:"tags"        yaml:"tags"`
	TotalCount int   `json:"total_count" yaml:"total_count"`
}

// ListOptions bounds a listing. A Limit of zero or less means unbounded for
// page listings and the server default for tag listings.
type ListOptions struct {
	Limit  int
	Offset int
}

// PageList is the result of a page listing.
type PageList struct {
	Pages      []Page `json:"pages"       yaml:"pages"`
	TotalCount int    `json:"total_count" yaml:"total_count"`
}
