package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/growi/pkg/growi"
)

// NewAttachCommand creates the attach command.
func NewAttachCommand() *cobra.Command {
	var (
		pageID string
		opts   growi.AttachFileOptions
	)

	cmd := &cobra.Command{
		Use:   "attach [PATH] FILE",
		Short: "Attach a file to a page",
		Long:  "Upload a local file as an attachment of a page and print its proxied path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, rest, err := pageRef(args, pageID, 1)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				attachment, err := client.Attachments().AttachFile(ctx, ref, rest[0], &opts)
				if err != nil {
					return fmt.Errorf("failed to attach file: %w", err)
				}

				return render(cmd, attachment, func(table *tablewriter.Table) {
					table.Header("Property", "Value")
					_ = table.Append([]string{"ID", attachment.ID})
					_ = table.Append([]string{"Page ID", attachment.PageID})
					_ = table.Append([]string{"File Name", formatValue(attachment.OriginalName)})
					_ = table.Append([]string{"Size", strconv.FormatInt(attachment.FileSize, 10)})
					_ = table.Append([]string{"Path", attachment.FilePathProxied})
				})
			})
		},
	}

	cmd.Flags().StringVar(&pageID, "id", "", "page id instead of a path")
	cmd.Flags().StringVar(&opts.FileName, "name", "", "file name to upload as (default is the local file name)")
	cmd.Flags().StringVar(&opts.MIMEType, "mime-type", "", "content type (default is guessed from the extension)")
	cmd.Flags().StringVar(&opts.TargetPath, "target-path", "", "page path sent along with the upload")

	return cmd
}
