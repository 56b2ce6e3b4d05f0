package growi_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

var errTestTransport = errors.New("connection refused")

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantNil  bool
		wantKind growi.ErrorKind
		wantMsg  string
	}{
		{name: "200 without ok flag", status: http.StatusOK, body: `{"page":{}}`, wantNil: true},
		{name: "201 with ok true", status: http.StatusCreated, body: `{"ok":true}`, wantNil: true},
		{name: "200 with non-json body", status: http.StatusOK, body: `plain`, wantNil: true},
		{
			name: "200 with ok false", status: http.StatusOK,
			body:     `{"ok":false,"error":"Posted param \"revisionId\" is outdated."}`,
			wantKind: growi.KindOperationFailed, wantMsg: `Posted param "revisionId" is outdated.`,
		},
		{
			name: "404", status: http.StatusNotFound,
			body:     `{"errors":[{"message":"Page is not found","code":"not_found"}]}`,
			wantKind: growi.KindNotFound, wantMsg: "Page is not found",
		},
		{
			name: "400 with exists code", status: http.StatusBadRequest,
			body:     `{"errors":[{"message":"Page '/a' is exist","code":"already_exists"}]}`,
			wantKind: growi.KindAlreadyExists, wantMsg: "Page '/a' is exist",
		},
		{
			name: "400 with exists text", status: http.StatusBadRequest,
			body:     `{"ok":false,"error":"Page already exists."}`,
			wantKind: growi.KindAlreadyExists, wantMsg: "Page already exists.",
		},
		{
			name: "400 without marker", status: http.StatusBadRequest,
			body:     `{"errors":[{"code":"validation_failed"}]}`,
			wantKind: growi.KindBadRequest, wantMsg: "validation_failed",
		},
		{name: "401", status: http.StatusUnauthorized, body: ``, wantKind: growi.KindUnauthorized},
		{
			name: "403", status: http.StatusForbidden,
			body:     `{"error":{"message":"forbidden"}}`,
			wantKind: growi.KindUnauthorized, wantMsg: "forbidden",
		},
		{name: "500", status: http.StatusInternalServerError, body: `oops`, wantKind: growi.KindServerError},
		{name: "503", status: http.StatusServiceUnavailable, body: ``, wantKind: growi.KindServerError},
		{name: "409", status: http.StatusConflict, body: ``, wantKind: growi.KindUnknown},
		{name: "302", status: http.StatusFound, body: ``, wantKind: growi.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := growi.Classify("op", tt.status, []byte(tt.body))
			if tt.wantNil {
				assert.Nil(t, err)

				return
			}

			require.NotNil(t, err)
			assert.Equal(t, tt.wantKind, err.Kind)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.body, err.Body)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, "op", err.Op)
		})
	}
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := growi.Classify("update", http.StatusNotFound, []byte(`{"errors":[{"message":"Page is not found"}]}`))
	assert.Equal(t, "growi: update: not found (status 404): Page is not found", err.Error())

	unreachable := growi.NewUnreachable("resolve", errTestTransport)
	assert.Equal(t, "growi: resolve: unreachable: connection refused", unreachable.Error())
	assert.ErrorIs(t, unreachable, errTestTransport)

	invalid := growi.NewInvalidArgument("resolve", growi.ErrPageRefEmpty)
	assert.ErrorIs(t, invalid, growi.ErrPageRefEmpty)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("outer: %w", growi.NewNotFound("resolve", []byte(`{"page":null}`)))

	assert.True(t, growi.IsNotFound(wrapped))
	assert.False(t, growi.IsServerError(wrapped))
	assert.Equal(t, growi.KindNotFound, growi.KindOf(wrapped))
	assert.Equal(t, http.StatusNotFound, growi.StatusCodeOf(wrapped))
	assert.ErrorIs(t, wrapped, growi.ErrMissingPageInReply)

	assert.Equal(t, growi.KindUnknown, growi.KindOf(errTestTransport))
	assert.Equal(t, 0, growi.StatusCodeOf(errTestTransport))
	assert.False(t, growi.IsNotFound(nil))

	failed := growi.NewOperationFailed("attach", http.StatusOK, []byte(`{"ok":false,"error":"nope"}`), growi.ErrNotConfirmed)
	assert.True(t, growi.IsOperationFailed(failed))
	assert.Equal(t, "nope", failed.Message)
}

func TestIsConflict(t *testing.T) {
	t.Parallel()

	assert.True(t, growi.IsConflict(growi.Classify("update", http.StatusOK,
		[]byte(`{"ok":false,"error":"Posted param \"revisionId\" is outdated."}`))))
	assert.True(t, growi.IsConflict(growi.Classify("rename", http.StatusConflict, nil)))
	assert.True(t, growi.IsConflict(growi.Classify("rename", http.StatusBadRequest,
		[]byte(`{"errors":[{"code":"conflict"}]}`))))

	assert.False(t, growi.IsConflict(growi.Classify("update", http.StatusOK, []byte(`{"ok":false,"error":"nope"}`))))
	assert.False(t, growi.IsConflict(growi.Classify("update", http.StatusInternalServerError, []byte(`outdated`))))
	assert.False(t, growi.IsConflict(errTestTransport))
}

func TestErrorKind_Label(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_found", growi.KindNotFound.Label())
	assert.Equal(t, "invalid_argument", growi.KindInvalidArgument.Label())
	assert.Equal(t, "unknown", growi.KindUnknown.Label())
	assert.Equal(t, "kind(42)", growi.ErrorKind(42).String())
}
