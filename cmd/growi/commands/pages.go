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

// NewPageCommand creates the page command group.
func NewPageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "page",
		Aliases: []string{"pages", "p"},
		Short:   "Manage wiki pages",
		Long:    "Read, list, create, update and rename wiki pages",
	}

	cmd.AddCommand(newPageGetCommand())
	cmd.AddCommand(newPageExistsCommand())
	cmd.AddCommand(newPageListCommand())
	cmd.AddCommand(newPageCreateCommand())
	cmd.AddCommand(newPageUpdateCommand())
	cmd.AddCommand(newPageRenameCommand())
	cmd.AddCommand(newPageBatchUpdateCommand())

	return cmd
}

func newPageGetCommand() *cobra.Command {
	var (
		pageID string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "get [PATH]",
		Short: "Show a page",
		Long:  "Show a page by path or by --id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _, err := pageRef(args, pageID, 0)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				page, err := client.Pages().Get(ctx, ref)
				if err != nil {
					return fmt.Errorf("failed to get page: %w", err)
				}

				if raw {
					_, err = fmt.Fprint(cmd.OutOrStdout(), page.Revision.Body)

					return err
				}

				return render(cmd, page, func(table *tablewriter.Table) {
					table.Header("Property", "Value")
					_ = table.Append([]string{"ID", page.ID})
					_ = table.Append([]string{"Path", page.Path})
					_ = table.Append([]string{"Revision", page.Revision.ID})
					_ = table.Append([]string{"Grant", strconv.Itoa(int(page.Grant))})
					_ = table.Append([]string{"Author", formatValue(page.Revision.Author)})
					_ = table.Append([]string{"Updated", formatTime(page.UpdatedAt)})
				})
			})
		},
	}

	cmd.Flags().StringVar(&pageID, "id", "", "page id instead of a path")
	cmd.Flags().BoolVar(&raw, "raw", false, "print only the page body")

	return cmd
}

func newPageExistsCommand() *cobra.Command {
	var pageID string

	cmd := &cobra.Command{
		Use:   "exists [PATH]",
		Short: "Check whether a page exists",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _, err := pageRef(args, pageID, 0)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				exists, err := client.Pages().Exists(ctx, ref)
				if err != nil {
					return fmt.Errorf("failed to check page: %w", err)
				}

				result := struct {
					Page   string `json:"page"   yaml:"page"`
					Exists bool   `json:"exists" yaml:"exists"`
				}{Page: ref.String(), Exists: exists}

				return render(cmd, result, func(table *tablewriter.Table) {
					table.Header("Page", "Exists")
					_ = table.Append([]string{result.Page, strconv.FormatBool(exists)})
				})
			})
		},
	}

	cmd.Flags().StringVar(&pageID, "id", "", "page id instead of a path")

	return cmd
}

func newPageListCommand() *cobra.Command {
	var (
		user string
		opts growi.ListOptions
	)

	cmd := &cobra.Command{
		Use:   "list [PATH_PREFIX]",
		Short: "List pages",
		Long:  "List pages under a path prefix or created by --user",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user != "" && len(args) > 0 {
				return constants.ErrPathAndUserExclusive
			}

			if user == "" && len(args) == 0 {
				return constants.ErrPathOrUserRequired
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				var (
					list *growi.PageList
					err  error
				)

				if user != "" {
					list, err = client.Pages().ListByUser(ctx, user, &opts)
				} else {
					list, err = client.Pages().ListByPath(ctx, args[0], &opts)
				}

				if err != nil {
					return fmt.Errorf("failed to list pages: %w", err)
				}

				return render(cmd, list, func(table *tablewriter.Table) {
					table.Header("Path", "ID", "Revision", "Updated")

					for _, page := range list.Pages {
						_ = table.Append([]string{page.Path, page.ID, formatValue(page.Revision.ID), formatTime(page.UpdatedAt)})
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "list pages created by this user")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of pages, 0 for all")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of pages to skip")

	return cmd
}

func newPageCreateCommand() *cobra.Command {
	var (
		body  bodySource
		grant int
	)

	cmd := &cobra.Command{
		Use:   "create PATH",
		Short: "Create a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := body.read(cmd)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				descriptor, err := client.Pages().Create(ctx, args[0], content, growi.GrantLevel(grant))
				if err != nil {
					return fmt.Errorf("failed to create page: %w", err)
				}

				return renderDescriptor(cmd, descriptor)
			})
		},
	}

	body.register(cmd)
	cmd.Flags().IntVar(&grant, "grant", int(growi.DefaultGrant), "page grant level")

	return cmd
}

func newPageUpdateCommand() *cobra.Command {
	var (
		pageID string
		body   bodySource
		grant  int
	)

	cmd := &cobra.Command{
		Use:   "update [PATH]",
		Short: "Update a page body",
		Long:  "Replace the body of an existing page. The write fails if the page changed since it was read.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _, err := pageRef(args, pageID, 0)
			if err != nil {
				return err
			}

			content, err := body.read(cmd)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				descriptor, err := client.Pages().Update(ctx, &growi.MutationRequest{
					Ref:   ref,
					Body:  content,
					Grant: growi.GrantLevel(grant),
				})
				if err != nil {
					return fmt.Errorf("failed to update page: %w", err)
				}

				return renderDescriptor(cmd, descriptor)
			})
		},
	}

	cmd.Flags().StringVar(&pageID, "id", "", "page id instead of a path")
	body.register(cmd)
	cmd.Flags().IntVar(&grant, "grant", int(growi.DefaultGrant), "page grant level")

	return cmd
}

func newPageRenameCommand() *cobra.Command {
	var (
		pageID           string
		preserveMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "rename [PATH] NEW_PATH",
		Short: "Rename a page",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, rest, err := pageRef(args, pageID, 1)
			if err != nil {
				return err
			}

			return withSession(cmd, func(ctx context.Context, client growi.Client) error {
				descriptor, err := client.Pages().Rename(ctx, &growi.MutationRequest{
					Ref:              ref,
					NewPath:          rest[0],
					PreserveMetadata: preserveMetadata,
				})
				if err != nil {
					return fmt.Errorf("failed to rename page: %w", err)
				}

				return renderDescriptor(cmd, descriptor)
			})
		},
	}

	cmd.Flags().StringVar(&pageID, "id", "", "page id instead of a path")
	cmd.Flags().BoolVar(&preserveMetadata, "keep-metadata", false, "keep the page's update metadata")

	return cmd
}

func renderDescriptor(cmd *cobra.Command, descriptor *growi.PageDescriptor) error {
	return render(cmd, descriptor, func(table *tablewriter.Table) {
		table.Header("ID", "Path", "Revision")
		_ = table.Append([]string{descriptor.ID, descriptor.Path, descriptor.RevisionID})
	})
}
