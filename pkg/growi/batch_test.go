package growi_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

var errTestOutdated = errors.New("outdated")

// MockPagesClient implements growi.PagesClient for testing.
type MockPagesClient struct {
	mock.Mock

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (m *MockPagesClient) Resolve(ctx context.Context, ref growi.PageRef) (*growi.PageDescriptor, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*growi.PageDescriptor), args.Error(1)
}

func (m *MockPagesClient) Exists(ctx context.Context, ref growi.PageRef) (bool, error) {
	args := m.Called(ctx, ref)

	return args.Bool(0), args.Error(1)
}

func (m *MockPagesClient) Get(ctx context.Context, ref growi.PageRef) (*growi.Page, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*growi.Page), args.Error(1)
}

func (m *MockPagesClient) ListByPath(ctx context.Context, path string, opts *growi.ListOptions) (*growi.PageList, error) {
	args := m.Called(ctx, path, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*growi.PageList), args.Error(1)
}

func (m *MockPagesClient) ListByUser(ctx context.Context, user string, opts *growi.ListOptions) (*growi.PageList, error) {
	args := m.Called(ctx, user, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*growi.PageList), args.Error(1)
}

func (m *MockPagesClient) Create(ctx context.Context, path, body string, grant growi.GrantLevel) (*growi.PageDescriptor, error) {
	args := m.Called(ctx, path, body, grant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*growi.PageDescriptor), args.Error(1)
}

func (m *MockPagesClient) Update(ctx context.Context, request *growi.MutationRequest) (*growi.PageDescriptor, error) {
	current := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	for {
		highest := m.maxInFlight.Load()
		if current <= highest || m.maxInFlight.CompareAndSwap(highest, current) {
			break
		}
	}

	time.Sleep(m.delay)

	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*growi.PageDescriptor), args.Error(1)
}

func (m *MockPagesClient) Rename(ctx context.Context, request *growi.MutationRequest) (*growi.PageDescriptor, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*growi.PageDescriptor), args.Error(1)
}

func TestBatchUpdater_Update(t *testing.T) {
	t.Parallel()

	pages := &MockPagesClient{delay: 10 * time.Millisecond}

	requests := []*growi.MutationRequest{
		{Ref: growi.ByPath("/a"), Body: "a"},
		{Ref: growi.ByPath("/b"), Body: "b"},
		{Ref: growi.ByPath("/c"), Body: "c"},
		{Ref: growi.ByID("p4"), Body: "d"},
	}

	pages.On("Update", mock.Anything, requests[0]).Return(&growi.PageDescriptor{ID: "p1", Path: "/a", RevisionID: "r2"}, nil)
	pages.On("Update", mock.Anything, requests[1]).Return(nil, errTestOutdated)
	pages.On("Update", mock.Anything, requests[2]).Return(&growi.PageDescriptor{ID: "p3", Path: "/c", RevisionID: "r5"}, nil)
	pages.On("Update", mock.Anything, requests[3]).Return(&growi.PageDescriptor{ID: "p4", Path: "/d", RevisionID: "r9"}, nil)

	updater := growi.NewBatchUpdater(pages, 2)
	results := updater.Update(context.Background(), requests)

	require.Len(t, results, len(requests))

	for i, result := range results {
		assert.Equal(t, i, result.Index)
		assert.Same(t, requests[i], result.Request)
	}

	assert.Equal(t, "p1", results[0].Descriptor.ID)
	assert.ErrorIs(t, results[1].Error, errTestOutdated)
	assert.Nil(t, results[1].Descriptor)
	assert.Equal(t, "r5", results[2].Descriptor.RevisionID)
	assert.Equal(t, "/d", results[3].Descriptor.Path)

	failed := growi.Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Index)

	assert.LessOrEqual(t, pages.maxInFlight.Load(), int32(2))
	pages.AssertNumberOfCalls(t, "Update", 4)
	pages.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestBatchUpdater_Timeout(t *testing.T) {
	t.Parallel()

	pages := &MockPagesClient{}
	request := &growi.MutationRequest{Ref: growi.ByPath("/a"), Body: "a"}

	pages.On("Update", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()

		return hasDeadline
	}), request).Return(&growi.PageDescriptor{ID: "p1"}, nil)

	updater := growi.NewBatchUpdater(pages, 0)
	updater.SetTimeout(time.Second)

	results := updater.Update(context.Background(), []*growi.MutationRequest{request})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Error)
	pages.AssertExpectations(t)
}

func TestBatchUpdater_Empty(t *testing.T) {
	t.Parallel()

	updater := growi.NewBatchUpdater(&MockPagesClient{}, 3)

	assert.Empty(t, updater.Update(context.Background(), nil))
	assert.Empty(t, growi.Failed(nil))
}
