package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// pageRef builds a reference from either the leading positional argument or
// --id. extra is the number of positional arguments that follow the page.
func pageRef(args []string, id string, extra int) (growi.PageRef, []string, error) {
	if id != "" {
		if len(args) > extra {
			return growi.PageRef{}, nil, constants.ErrPathAndIDExclusive
		}

		return growi.ByID(id), args, nil
	}

	if len(args) <= extra {
		return growi.PageRef{}, nil, constants.ErrPathOrIDRequired
	}

	return growi.ByPath(args[0]), args[1:], nil
}

// bodySource holds the --body and --file flags.
type bodySource struct {
	body string
	file string
}

func (b *bodySource) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&b.body, "body", "b", "", "page body")
	cmd.Flags().StringVarP(&b.file, "file", "f", "", "read the page body from a file, - for stdin")
}

func (b *bodySource) read(cmd *cobra.Command) (string, error) {
	hasBody := cmd.Flags().Changed("body")

	switch {
	case hasBody && b.file != "":
		return "", constants.ErrBodySourceConflict
	case hasBody:
		return b.body, nil
	case b.file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}

		return string(data), nil
	case b.file != "":
		return readBodyFile(b.file)
	default:
		return "", constants.ErrBodyRequired
	}
}

func readBodyFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}

	return string(data), nil
}
