package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/internal/http"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// TagsClient implements growi.TagsClient.
type TagsClient struct {
	httpClient *http.Client
	pages      *PagesClient
	obs        *observer
}

// NewTagsClient creates a new tags client.
func NewTagsClient(httpClient *http.Client, pages *PagesClient, obs *observer) *TagsClient {
	return &TagsClient{
		httpClient: httpClient,
		pages:      pages,
		obs:        obs,
	}
}

// List implements growi.TagsClient.List.
func (c *TagsClient) List(ctx context.Context, opts *growi.ListOptions) (_ *growi.TagList, err error) {
	ctx, finish := c.obs.start(ctx, opListTags, growi.PageRef{})
	defer func() { finish(err) }()

	resp, err := call(opListTags, func() (*http.Response, error) {
		return c.httpClient.Get(ctx, constants.APIPathTagsList, tagListQuery(opts))
	})
	if err != nil {
		return nil, err
	}

	var reply tagListReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(opListTags, resp, err, "tag list")
	}

	list := &growi.TagList{
		Tags:       reply.Data,
		TotalCount: len(reply.Data),
	}

	if list.Tags == nil {
		list.Tags = []growi.Tag{}
	}

	if reply.TotalCount != nil {
		list.TotalCount = *reply.TotalCount
	}

	return list, nil
}

// ByPage implements growi.TagsClient.ByPage. The page is resolved first so
// a path and an id behave the same and a missing page is NotFound.
func (c *TagsClient) ByPage(ctx context.Context, ref growi.PageRef) (_ []string, err error) {
	ctx, finish := c.obs.start(ctx, opPageTags, ref)
	defer func() { finish(err) }()

	page, err := c.pages.lookup(ctx, opPageTags, ref)
	if err != nil {
		return nil, err
	}

	pageID := page.ID

	resp, err := call(opPageTags, func() (*http.Response, error) {
		return c.httpClient.Get(ctx, constants.APIPathPageTags, url.Values{"pageId": []string{pageID}})
	})
	if err != nil {
		return nil, err
	}

	var reply pageTagsReply

	err = json.Unmarshal(resp.Body, &reply)
	if err != nil {
		return nil, decodeError(opPageTags, resp, err, "page tags")
	}

	if reply.Tags == nil {
		return []string{}, nil
	}

	return reply.Tags, nil
}

// tagListQuery sends limit and offset only when set; an unset limit leaves
// the page size to the server.
func tagListQuery(opts *growi.ListOptions) url.Values {
	query := url.Values{}
	if opts == nil {
		return query
	}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	return query
}
