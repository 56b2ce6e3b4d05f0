package growiclient_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/internal/growitest"
	"github.com/fivetwenty-io/growi/pkg/growi"
	"github.com/fivetwenty-io/growi/pkg/growiclient"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		client, err := growiclient.New(context.Background(), &growi.Config{BaseURL: "https://wiki.example.com"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := growiclient.New(context.Background(), nil)
		require.ErrorIs(t, err, growi.ErrConfigRequired)
	})

	t.Run("missing base URL", func(t *testing.T) {
		t.Parallel()

		_, err := growiclient.New(context.Background(), &growi.Config{BaseURL: "  "})
		require.ErrorIs(t, err, growi.ErrBaseURLRequired)
	})

	t.Run("does not modify config", func(t *testing.T) {
		t.Parallel()

		config := &growi.Config{BaseURL: "wiki.example.com/"}

		_, err := growiclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.Equal(t, "wiki.example.com/", config.BaseURL)
	})
}

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"wiki.example.com":          "https://wiki.example.com",
		"https://wiki.example.com/": "https://wiki.example.com",
		"http://localhost:3000//":   "http://localhost:3000",
		" https://wiki.example.com": "https://wiki.example.com",
	}

	for input, want := range tests {
		assert.Equal(t, want, growiclient.NormalizeBaseURL(input), input)
	}
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	server := growitest.NewServer()
	server.Token = "secret"
	defer server.Close()

	server.Seed("/hello", "world")

	client, err := growiclient.NewWithToken(context.Background(), server.URL+"/", "secret")
	require.NoError(t, err)

	exists, err := client.Pages().Exists(context.Background(), growi.ByPath("/hello"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewFromEnv(t *testing.T) {
	server := growitest.NewServer()
	defer server.Close()

	t.Setenv(growiclient.EnvURL, server.URL)
	t.Setenv(growiclient.EnvToken, "")

	client, err := growiclient.NewFromEnv(context.Background())
	require.NoError(t, err)

	_, err = client.Pages().Resolve(context.Background(), growi.ByPath("/missing"))
	assert.True(t, growi.IsNotFound(err))
}

func TestDefaultCircuitBreaker(t *testing.T) {
	t.Parallel()

	settings := growiclient.DefaultCircuitBreaker()
	require.NotNil(t, settings)
	require.NotNil(t, settings.ReadyToTrip)
	assert.Positive(t, settings.Timeout)
}
