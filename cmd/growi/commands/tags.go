package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/growi/internal/constants"
	"github.com/fivetwenty-io/growi/pkg/growi"
)

// NewTagsCommand creates the tags command group.
func NewTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "Query tags",
		Long:    "List wiki tags and the tags of a page",
	}

	cmd.AddCommand(newTagsListCommand())
	cmd.AddCommand(newTagsPageCommand())

	return cmd
}

func newTagsListCommand() *cobra.Command {
	opts := growi.ListOptions{Limit: constants.DefaultTagListLimit}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags with their page counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				list, err := client.Tags().List(ctx, &opts)
				if err != nil {
					return fmt.Errorf("failed to list tags: %w", err)
				}

				return render(cmd, list, func(table *tablewriter.Table) {
					table.Header("Tag", "Pages")

					for _, tag := range list.Tags {
						_ = table.Append([]string{tag.Name, strconv.Itoa(tag.Count)})
					}
				})
			})
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", constants.DefaultTagListLimit, "maximum number of tags, 0 for all")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of tags to skip")

	return cmd
}

func newTagsPageCommand() *cobra.Command {
	var pageID string

	cmd := &cobra.Command{
		Use:   "page [PATH]",
		Short: "List the tags of a page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _, err := pageRef(args, pageID, 0)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				tags, err := client.Tags().ByPage(ctx, ref)
				if err != nil {
					return fmt.Errorf("failed to get page tags: %w", err)
				}

				return render(cmd, tags, func(table *tablewriter.Table) {
					table.Header("Tag")

					for _, tag := range tags {
						_ = table.Append([]string{tag})
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&pageID, "id", "", "page id instead of a path")

	return cmd
}
