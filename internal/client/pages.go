package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/internal/http"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// PagesClient implements growi.PagesClient.
type PagesClient struct {
	httpClient *http.Client
	obs        *observer
}

// NewPagesClient creates a new pages client.
func NewPagesClient(httpClient *http.Client, obs *observer) *PagesClient {
	return &PagesClient{
		httpClient: httpClient,
		obs:        obs,
	}
}

// Resolve implements growi.PagesClient.Resolve.
func (c *PagesClient) Resolve(ctx context.Context, ref growi.PageRef) (_ *growi.PageDescriptor, err error) {
	ctx, finish := c.obs.start(ctx, opResolve, ref)
	defer func() { finish(err) }()

	page, err := c.lookup(ctx, opResolve, ref)
	if err != nil {
		return nil, err
	}

	return page.descriptor(), nil
}

// Exists implements growi.PagesClient.Exists. It is the only operation that
// turns NotFound into a value.
func (c *PagesClient) Exists(ctx context.Context, ref growi.PageRef) (_ bool, err error) {
	ctx, finish := c.obs.start(ctx, opExists, ref)
	defer func() { finish(err) }()

	_, err = c.lookup(ctx, opExists, ref)

	switch {
	case err == nil:
		return true, nil
	case growi.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// Get implements growi.PagesClient.Get.
func (c *PagesClient) Get(ctx context.Context, ref growi.PageRef) (_ *growi.Page, err error) {
	ctx, finish := c.obs.start(ctx, opGet, ref)
	defer func() { finish(err) }()

	wire, err := c.lookup(ctx, opGet, ref)
	if err != nil {
		return nil, err
	}

	page := wire.page()

	return &page, nil
}

// lookup validates ref and fetches the page it names. Every mutation goes
// through here, so a descriptor is always fresh.
func (c *PagesClient) lookup(ctx context.Context, op string, ref growi.PageRef) (*wirePage, error) {
	err := ref.Validate()
	if err != nil {
		return nil, growi.NewInvalidArgument(op, err)
	}

	query := url.Values{}
	if ref.IsPath() {
		query.Set("path", ref.Path)
	} else {
		query.Set("pageId", ref.ID)
	}

	resp, err := call(op, func() (*http.Response, error) {
		return c.httpClient.Get(ctx, constants.APIPathPage, query)
	})
	if err != nil {
		return nil, err
	}

	var reply pageReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(op, resp, err, "page response")
	}

	if reply.Page == nil || reply.Page.ID == "" {
		return nil, growi.NewNotFound(op, resp.Body)
	}

	return reply.Page, nil
}

// Create implements growi.PagesClient.Create.
func (c *PagesClient) Create(ctx context.Context, path, body string, grant growi.GrantLevel) (_ *growi.PageDescriptor, err error) {
	ctx, finish := c.obs.start(ctx, opCreate, growi.ByPath(path))
	defer func() { finish(err) }()

	if strings.TrimSpace(path) == "" {
		return nil, growi.NewInvalidArgument(opCreate, growi.ErrPathRequired)
	}

	form := url.Values{}
	form.Set("path", path)
	form.Set("body", body)
	form.Set("grant", grantValue(grant))

	resp, err := call(opCreate, func() (*http.Response, error) {
		return c.httpClient.PostForm(ctx, constants.APIPathPages, form)
	})
	if err != nil {
		return nil, err
	}

	var reply pageReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(opCreate, resp, err, "create response")
	}

	if reply.Page == nil || reply.Page.ID == "" {
		return nil, growi.NewDecodeError(opCreate, resp.StatusCode, resp.Body, growi.ErrMissingPageInReply)
	}

	descriptor := reply.Page.descriptor()
	if descriptor.RevisionID == "" && reply.Revision != nil {
		descriptor.RevisionID = reply.Revision.ID
	}

	c.obs.publish(ctx, &growi.PageEvent{
		Operation:  growi.PageCreated,
		PageID:     descriptor.ID,
		Path:       descriptor.Path,
		RevisionID: descriptor.RevisionID,
	})

	return descriptor, nil
}

// Update implements growi.PagesClient.Update. The write carries the revision
// id read by the resolution immediately before it; a stale revision is
// reported, never retried.
func (c *PagesClient) Update(ctx context.Context, request *growi.MutationRequest) (_ *growi.PageDescriptor, err error) {
	if request == nil {
		return nil, growi.NewInvalidArgument(opUpdate, growi.ErrRequestRequired)
	}

	ctx, finish := c.obs.start(ctx, opUpdate, request.Ref)
	defer func() { finish(err) }()

	current, err := c.lookup(ctx, opUpdate, request.Ref)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("page_id", current.ID)
	form.Set("revision_id", current.Revision.ID)
	form.Set("body", request.Body)
	form.Set("grant", grantValue(request.Grant))

	if request.Ref.IsPath() {
		form.Set("path", request.Ref.Path)
	}

	resp, err := call(opUpdate, func() (*http.Response, error) {
		return c.httpClient.PostForm(ctx, constants.APIPathPagesUpdate, form)
	})
	if err != nil {
		return nil, err
	}

	var reply pageReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(opUpdate, resp, err, "update response")
	}

	descriptor := merge(current, reply)

	c.obs.publish(ctx, &growi.PageEvent{
		Operation:  growi.PageUpdated,
		PageID:     descriptor.ID,
		Path:       descriptor.Path,
		RevisionID: descriptor.RevisionID,
	})

	return descriptor, nil
}

// Rename implements growi.PagesClient.Rename.
func (c *PagesClient) Rename(ctx context.Context, request *growi.MutationRequest) (_ *growi.PageDescriptor, err error) {
	if request == nil {
		return nil, growi.NewInvalidArgument(opRename, growi.ErrRequestRequired)
	}

	ctx, finish := c.obs.start(ctx, opRename, request.Ref)
	defer func() { finish(err) }()

	if strings.TrimSpace(request.NewPath) == "" {
		return nil, growi.NewInvalidArgument(opRename, growi.ErrNewPathRequired)
	}

	current, err := c.lookup(ctx, opRename, request.Ref)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("pageId", current.ID)
	form.Set("revisionId", current.Revision.ID)
	form.Set("path", current.Path)
	form.Set("newPagePath", request.NewPath)
	form.Set("isRemainMetadata", strconv.FormatBool(request.PreserveMetadata))

	resp, err := call(opRename, func() (*http.Response, error) {
		return c.httpClient.PutForm(ctx, constants.APIPathPagesRename, form)
	})
	if err != nil {
		return nil, err
	}

	var reply pageReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(opRename, resp, err, "rename response")
	}

	descriptor := merge(current, reply)
	if reply.Page == nil || reply.Page.Path == "" {
		descriptor.Path = request.NewPath
	}

	c.obs.publish(ctx, &growi.PageEvent{
		Operation:  growi.PageRenamed,
		PageID:     descriptor.ID,
		Path:       descriptor.Path,
		RevisionID: descriptor.RevisionID,
		OldPath:    current.Path,
	})

	return descriptor, nil
}

// ListByPath implements growi.PagesClient.ListByPath.
func (c *PagesClient) ListByPath(ctx context.Context, path string, opts *growi.ListOptions) (_ *growi.PageList, err error) {
	ctx, finish := c.obs.start(ctx, opListByPath, growi.ByPath(path))
	defer func() { finish(err) }()

	if strings.TrimSpace(path) == "" {
		return nil, growi.NewInvalidArgument(opListByPath, growi.ErrPathRequired)
	}

	query := listQuery(opts)
	query.Set("path", path)

	return c.list(ctx, opListByPath, query)
}

// ListByUser implements growi.PagesClient.ListByUser.
func (c *PagesClient) ListByUser(ctx context.Context, user string, opts *growi.ListOptions) (_ *growi.PageList, err error) {
	ctx, finish := c.obs.start(ctx, opListByUser, growi.PageRef{})
	defer func() { finish(err) }()

	if strings.TrimSpace(user) == "" {
		return nil, growi.NewInvalidArgument(opListByUser, growi.ErrUserRequired)
	}

	query := listQuery(opts)
	query.Set("user", user)

	return c.list(ctx, opListByUser, query)
}

func (c *PagesClient) list(ctx context.Context, op string, query url.Values) (*growi.PageList, error) {
	resp, err := call(op, func() (*http.Response, error) {
		return c.httpClient.Get(ctx, constants.APIPathPagesList, query)
	})
	if err != nil {
		return nil, err
	}

	var reply pageListReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(op, resp, err, "page list")
	}

	list := &growi.PageList{
		Pages:      make([]growi.Page, 0, len(reply.Pages)),
		TotalCount: len(reply.Pages),
	}

	for i := range reply.Pages {
		list.Pages = append(list.Pages, reply.Pages[i].page())
	}

	if reply.TotalCount != nil {
		list.TotalCount = *reply.TotalCount
	}

	return list, nil
}

// listQuery maps a non-positive limit to the unbounded sentinel; omitting
// the parameter would let the server apply its own page size.
func listQuery(opts *growi.ListOptions) url.Values {
	query := url.Values{}

	limit := int64(constants.UnboundedListLimit)
	if opts != nil && opts.Limit > 0 {
		limit = int64(opts.Limit)
	}

	query.Set("limit", strconv.FormatInt(limit, 10))

	if opts != nil && opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	return query
}

// grantValue forwards the grant verbatim; zero means unset.
func grantValue(grant growi.GrantLevel) string {
	if grant == 0 {
		grant = growi.DefaultGrant
	}

	return strconv.Itoa(int(grant))
}

// merge prefers what the write reply reports and falls back to the page as
// it was resolved.
func merge(current *wirePage, reply pageReply) *growi.PageDescriptor {
	descriptor := current.descriptor()

	if reply.Page != nil {
		if reply.Page.ID != "" {
			descriptor.ID = reply.Page.ID
		}

		if reply.Page.Path != "" {
			descriptor.Path = reply.Page.Path
		}

		if reply.Page.Revision.ID != "" {
			descriptor.RevisionID = reply.Page.Revision.ID
		}
	}

	if reply.Revision != nil && reply.Revision.ID != "" {
		descriptor.RevisionID = reply.Revision.ID
	}

	return descriptor
}
