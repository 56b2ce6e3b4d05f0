package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/internal/tracing"
	"github.com/fivetwenty-io/growi/pkg/growi"
	"github.com/fivetwenty-io/growi/pkg/growiclient"
)

// session is a configured client plus whatever must be shut down after the
// command finishes.
type session struct {
	client  growi.Client
	logger  *stderrLogger
	closers []func(context.Context) error
}

func openSession(cmd *cobra.Command) (*session, error) {
	baseURL := viper.GetString(keyURL)
	if strings.TrimSpace(baseURL) == "" {
		return nil, constants.ErrNoWikiConfigured
	}

	token, err := resolveToken(cmd)
	if err != nil {
		return nil, err
	}

	sess := &session{
		logger: newStderrLogger(cmd.ErrOrStderr(), viper.GetBool(keyDebug)),
	}

	config := &growi.Config{
		BaseURL:     baseURL,
		AccessToken: token,
		Logger:      sess.logger,
		Debug:       viper.GetBool(keyDebug),
		UserAgent:   constants.DefaultUserAgent + "/" + cmd.Root().Version,
		HTTPTimeout: viper.GetDuration(keyTimeout),
		RetryMax:    viper.GetInt(keyRetries),
	}

	err = sess.setupTracing(cmd)
	if err != nil {
		return nil, err
	}

	if natsURL := viper.GetString(keyNATSURL); natsURL != "" {
		publisher, err := growi.ConnectNATS(natsURL, viper.GetString(keyNATSPrefix))
		if err != nil {
			sess.Close(cmd.Context())

			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}

		config.Events = publisher
		sess.closers = append(sess.closers, func(context.Context) error { return publisher.Close() })
	}

	sess.client, err = growiclient.New(cmd.Context(), config)
	if err != nil {
		sess.Close(cmd.Context())

		return nil, err
	}

	return sess, nil
}

func (s *session) setupTracing(cmd *cobra.Command) error {
	if !viper.GetBool(keyTrace) {
		return nil
	}

	config := tracing.DefaultConfig()
	config.Enabled = true
	config.ServiceVersion = cmd.Root().Version
	config.OTLPEndpoint = viper.GetString(keyOTLPEndpoint)
	config.Writer = cmd.ErrOrStderr()

	shutdown, err := tracing.Setup(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	s.closers = append(s.closers, shutdown)

	return nil
}

// Close releases resources in reverse order. Failures are only logged.
func (s *session) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		err := s.closers[i](ctx)
		if err != nil {
			s.logger.Warn("shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}

	s.closers = nil
}

// withSession opens a session, runs fn and closes the session.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, client growi.Client) error) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close(context.WithoutCancel(cmd.Context()))

	return fn(cmd.Context(), sess.client)
}

// resolveToken returns the configured token, prompting for one when none is
// configured and stdin is a terminal. Without a terminal the client runs
// unauthenticated.
func resolveToken(cmd *cobra.Command) (string, error) {
	token := viper.GetString(keyToken)
	if token != "" {
		return token, nil
	}

	stdin, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(stdin.Fd())) {
		return "", nil
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")

	tokenBytes, err := term.ReadPassword(int(stdin.Fd()))

	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token = strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return "", constants.ErrNoTokenConfigured
	}

	return token, nil
}
