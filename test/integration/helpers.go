//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/growi/pkg/growi"
	"github.com/fivetwenty-io/growi/pkg/growiclient"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	URL      string
	Token    string
	PathRoot string
	Verbose  bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	root := os.Getenv("GROWI_TEST_ROOT")
	if root == "" {
		root = "/integration-tests"
	}

	return &TestConfig{
		URL:      os.Getenv("GROWI_URL"),
		Token:    os.Getenv("GROWI_TOKEN"),
		PathRoot: root,
		Verbose:  os.Getenv("GROWI_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips the test unless a wiki is configured.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.URL == "" || config.Token == "" {
		t.Skip("GROWI_URL or GROWI_TOKEN not set, skipping integration test")
	}
}

// NewClient returns a client for the configured wiki.
func (config *TestConfig) NewClient(t *testing.T) growi.Client {
	t.Helper()

	client, err := growiclient.New(context.Background(), &growi.Config{
		BaseURL:     config.URL,
		AccessToken: config.Token,
		Debug:       config.Verbose,
		Logger:      &testLogger{t: t},
	})
	require.NoError(t, err)

	return client
}

// TestPath returns a unique page path under the test root.
func (config *TestConfig) TestPath(name string) string {
	return fmt.Sprintf("%s/%s-%d", config.PathRoot, name, time.Now().UnixNano())
}

type testLogger struct {
	t *testing.T
}

func (l *testLogger) Debug(msg string, fields map[string]interface{}) { l.t.Log("DEBUG", msg, fields) }
func (l *testLogger) Info(msg string, fields map[string]interface{})  { l.t.Log("INFO", msg, fields) }
func (l *testLogger) Warn(msg string, fields map[string]interface{})  { l.t.Log("WARN", msg, fields) }
func (l *testLogger) Error(msg string, fields map[string]interface{}) { l.t.Log("ERROR", msg, fields) }
