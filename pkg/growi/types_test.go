package growi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

func TestPageRef_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  growi.PageRef
		want error
	}{
		{name: "path", ref: growi.ByPath("/a"), want: nil},
		{name: "id", ref: growi.ByID("p1"), want: nil},
		{name: "neither", ref: growi.PageRef{}, want: growi.ErrPageRefEmpty},
		{name: "blank", ref: growi.PageRef{Path: " ", ID: "\t"}, want: growi.ErrPageRefEmpty},
		{name: "both", ref: growi.PageRef{Path: "/a", ID: "p1"}, want: growi.ErrPageRefAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.ref.Validate())
		})
	}
}

func TestPageRef_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b", growi.ByPath("/a/b").String())
	assert.Equal(t, "id:p1", growi.ByID("p1").String())
	assert.True(t, growi.ByPath("/a").IsPath())
	assert.False(t, growi.PageRef{Path: "  ", ID: "p1"}.IsPath())
}

func TestPage_Descriptor(t *testing.T) {
	t.Parallel()

	page := &growi.Page{ID: "p1", Path: "/a", Revision: growi.Revision{ID: "r7", Body: "x"}}

	assert.Equal(t, &growi.PageDescriptor{ID: "p1", Path: "/a", RevisionID: "r7"}, page.Descriptor())
}
