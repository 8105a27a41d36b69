package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/modelhistory/config"
	"github.com/pageza/modelhistory/internal/archive"
	"github.com/pageza/modelhistory/internal/database"
	"github.com/pageza/modelhistory/internal/history"
	"github.com/pageza/modelhistory/internal/models"
	"github.com/pageza/modelhistory/internal/service"
)

// app is what every subcommand works against.
type app struct {
	db       *gorm.DB
	history  *service.HistoryService
	articles *service.ArticleService
}

// opener connects to the database and wires the services.
type opener func(ctx context.Context) (*app, error)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd(openFromConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func openFromConfig(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, err
	}

	var archiver *archive.Archiver
	if cfg.S3BucketName != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		archiver = archive.NewArchiver(s3cfg.Client, s3cfg.BucketName)
	}
	return newApp(db, cfg.HistoryTimezone, cfg.HistoryLocale, archiver)
}

func newApp(db *gorm.DB, timezone, locale string, archiver *archive.Archiver) (*app, error) {
	plugin, err := service.NewHistorizable(db, timezone, locale)
	if err != nil {
		return nil, err
	}
	return &app{
		db:       db,
		history:  service.NewHistoryService(db, plugin, nil, archiver),
		articles: service.NewArticleService(db),
	}, nil
}

type appKey struct{}

func newRootCmd(open opener) *cobra.Command {
	var (
		output string
		as     string
	)

	rootCmd := &cobra.Command{
		Use:           "historyctl",
		Short:         "Browse and annotate model history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}

			ctx := history.WithRequestContext(cmd.Context(), cliContext(cmd, args))
			if as != "" {
				var user models.User
				if err := a.db.WithContext(ctx).Where("email = ?", as).First(&user).Error; err != nil {
					return fmt.Errorf("unknown user %q: %w", as, err)
				}
				ctx = history.WithUser(ctx, user.ID)
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, a))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table or json")
	rootCmd.PersistentFlags().StringVar(&as, "as", "", "E-mail of the user changes are attributed to")

	rootCmd.AddCommand(
		newListCmd(),
		newDiffCmd(),
		newCommentCmd(),
		newArchiveCmd(),
		newSeedCmd(),
	)
	return rootCmd
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

// cliContext marks history rows written by a command.
func cliContext(cmd *cobra.Command, args []string) history.RequestContext {
	host, _ := os.Hostname()
	return history.RequestContext{
		Type: models.ContextTypeCLI,
		Slug: strings.TrimSpace(cmd.CommandPath()),
		Data: map[string]interface{}{
			"args": strings.Join(args, " "),
			"host": host,
		},
	}
}
