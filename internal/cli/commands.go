package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/types"
)

func newListCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list <model> <id>",
		Short: "List the history of an entity, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := appFrom(cmd).history.List(cmd.Context(), args[0], args[1],
				history.Page{Number: page, Limit: limit})
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), result)
			}
			return printEntries(cmd.OutOrStdout(), result.Entries)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Entries per page")
	return cmd
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <model> <id> <from> <to>",
		Short: "Show field changes between two revisions",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid revision %q", args[2])
			}
			to, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid revision %q", args[3])
			}
			changes, err := appFrom(cmd).history.Diff(cmd.Context(), args[0], args[1], from, to)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), changes)
			}
			return printChanges(cmd.OutOrStdout(), changes)
		},
	}
}

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <model> <id> <text>",
		Short: "Add a comment to an entity's history",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := appFrom(cmd).history.Comment(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), entry)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added comment as revision %d\n", entry.Revision)
			return nil
		},
	}
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <model> <id>",
		Short: "Upload the full history of an entity to S3",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := appFrom(cmd).history.Archive(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"key": key})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Archived to %s\n", key)
			return nil
		},
	}
}

// newSeedCmd creates a demo user and an article with a short edit history.
func newSeedCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo data with history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			user := models.User{Firstname: "Demo", Lastname: "Editor", Email: "demo@example.com"}
			err := a.db.WithContext(ctx).Where("email = ?", user.Email).First(&user).Error
			if err != nil {
				if err := user.SetPassword(password); err != nil {
					return err
				}
				if err := a.db.WithContext(ctx).Create(&user).Error; err != nil {
					return fmt.Errorf("failed to create demo user: %w", err)
				}
			}
			ctx = history.WithUser(ctx, user.ID)

			title, content := "Hello history", "First draft."
			article, err := a.articles.Create(ctx, &types.ArticleRequest{Title: &title, Content: &content})
			if err != nil {
				return err
			}
			status := models.ArticlePublished
			published := time.Now()
			content = "Edited and published."
			if _, err := a.articles.Update(ctx, article.ID, &types.ArticleRequest{
				Content:     &content,
				Status:      &status,
				PublishedAt: &published,
			}); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Seeded user %s and article %s\n", user.Email, article.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "demo-password", "Password of the demo user")
	return cmd
}
