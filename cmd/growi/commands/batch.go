package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// batchEntry is one update in a batch file.
type batchEntry struct {
	Path  string  `yaml:"path"`
	ID    string  `yaml:"id"`
	Body  *string `yaml:"body"`
	File  string  `yaml:"file"`
	Grant int     `yaml:"grant"`
}

// batchOutcome is the reported result of one entry.
type batchOutcome struct {
	Page       string `json:"page"                  yaml:"page"`
	RevisionID string `json:"revision_id,omitempty" yaml:"revision_id,omitempty"`
	Error      string `json:"error,omitempty"       yaml:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"           yaml:"duration_ms"`
}

func newPageBatchUpdateCommand() *cobra.Command {
	var (
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "batch-update FILE",
		Short: "Update many pages from a YAML file",
		Long: `Update many pages from a YAML list. Each entry names a page by path or id
and gives the new body inline or as a file relative to the batch file:

  - path: /team/notes
    body: "# Notes"
  - id: 64f0c2a1e4b0a1b2c3d4e5f6
    file: runbook.md
    grant: 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := loadBatchFile(args[0])
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				updater := growi.NewBatchUpdater(client.Pages(), concurrency)
				updater.SetTimeout(timeout)

				results := updater.Update(ctx, requests)

				outcomes := make([]batchOutcome, 0, len(results))
				for _, result := range results {
					outcome := batchOutcome{
						Page:       result.Request.Ref.String(),
						DurationMS: result.Duration.Milliseconds(),
					}

					if result.Error != nil {
						outcome.Error = result.Error.Error()
					} else {
						outcome.RevisionID = result.Descriptor.RevisionID
					}

					outcomes = append(outcomes, outcome)
				}

				err := render(cmd, outcomes, func(table *tablewriter.Table) {
					table.Header("Page", "Revision", "Error", "Duration (ms)")

					for _, outcome := range outcomes {
						_ = table.Append([]string{
							outcome.Page,
							formatValue(outcome.RevisionID),
							formatValue(outcome.Error),
							strconv.FormatInt(outcome.DurationMS, 10),
						})
					}
				})
				if err != nil {
					return err
				}

				if failed := growi.Failed(results); len(failed) > 0 {
					return fmt.Errorf("%w: %d of %d", constants.ErrBatchFailed, len(failed), len(results))
				}

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", growi.DefaultBatchConcurrency, "updates to run at once")
	cmd.Flags().DurationVar(&timeout, "per-page-timeout", 0, "timeout for each page update, 0 for none")

	return cmd
}

func loadBatchFile(path string) ([]*growi.MutationRequest, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []batchEntry

	err = yaml.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}

	baseDir := filepath.Dir(cleanPath)
	requests := make([]*growi.MutationRequest, 0, len(entries))

	for index, entry := range entries {
		request, err := entry.request(baseDir)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", index+1, err)
		}

		requests = append(requests, request)
	}

	return requests, nil
}

func (e batchEntry) request(baseDir string) (*growi.MutationRequest, error) {
	hasPath := strings.TrimSpace(e.Path) != ""
	hasID := strings.TrimSpace(e.ID) != ""
	hasFile := e.File != ""

	if hasPath == hasID || (e.Body != nil) == hasFile {
		return nil, constants.ErrBatchEntryInvalid
	}

	ref := growi.ByPath(e.Path)
	if hasID {
		ref = growi.ByID(e.ID)
	}

	var body string

	if e.Body != nil {
		body = *e.Body
	} else {
		file := e.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}

		content, err := readBodyFile(file)
		if err != nil {
			return nil, err
		}

		body = content
	}

	return &growi.MutationRequest{
		Ref:   ref,
		Body:  body,
		Grant: growi.GrantLevel(e.Grant),
	}, nil
}
