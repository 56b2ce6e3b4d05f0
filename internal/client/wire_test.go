package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWirePage_RevisionShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         string
		wantRevision string
		wantCreator  string
	}{
		{
			name:         "embedded revision",
			body:         `{"_id":"p1","path":"/a","revision":{"_id":"r1","body":"x","author":{"_id":"u1","username":"alice"}},"creator":{"_id":"u1","username":"alice"}}`,
			wantRevision: "r1",
			wantCreator:  "alice",
		},
		{
			name:         "bare revision id",
			body:         `{"_id":"p1","path":"/a","revision":"r2","creator":"u9"}`,
			wantRevision: "r2",
			wantCreator:  "u9",
		},
		{
			name:         "null revision",
			body:         `{"_id":"p1","path":"/a","revision":null,"creator":null}`,
			wantRevision: "",
			wantCreator:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var page wirePage
			require.NoError(t, json.Unmarshal([]byte(tt.body), &page))

			assert.Equal(t, tt.wantRevision, page.descriptor().RevisionID)
			assert.Equal(t, tt.wantCreator, page.page().Creator)
			assert.Equal(t, "/a", page.descriptor().Path)
		})
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	current := &wirePage{ID: "p1", Path: "/a", Revision: wireRevision{ID: "r1"}}

	descriptor := merge(current, pageReply{})
	assert.Equal(t, "r1", descriptor.RevisionID)

	descriptor = merge(current, pageReply{Revision: &wireRevision{ID: "r3"}})
	assert.Equal(t, "r3", descriptor.RevisionID)

	descriptor = merge(current, pageReply{Page: &wirePage{Path: "/b", Revision: wireRevision{ID: "r2"}}})
	assert.Equal(t, "p1", descriptor.ID)
	assert.Equal(t, "/b", descriptor.Path)
	assert.Equal(t, "r2", descriptor.RevisionID)
}
