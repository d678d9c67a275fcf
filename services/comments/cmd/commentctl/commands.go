package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/comment-widget/internal/platform/config"
	"github.com/example/comment-widget/internal/platform/logging"
	"github.com/example/comment-widget/internal/platform/natsconn"
	"github.com/example/comment-widget/services/comments/internal/app"
	"github.com/example/comment-widget/services/comments/internal/events"
	"github.com/example/comment-widget/services/comments/internal/thread"
)

// opener builds the App a command runs against.
type opener func(ctx context.Context, log *zap.Logger) (*app.App, error)

func openFromConfig(ctx context.Context, log *zap.Logger) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, log)
}

// errRejected marks a command the thread refused; it maps to exit code 1.
var errRejected = errors.New("rejected")

func newRootCmd(open opener) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "commentctl",
		Short:         "Post, rate and browse comments from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	// withApp opens the store for one command and closes it afterwards.
	withApp := func(fn func(cmd *cobra.Command, args []string, m *thread.Manager) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			log, err := logging.NewConsole(logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			a, err := open(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd, args, a.Manager)
		}
	}

	var parentID string
	addCmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Post a comment, or a reply with --parent",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, m *thread.Manager) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			c, outcome, err := m.AddComment(cmd.Context(), text, strings.TrimSpace(parentID))
			if err = result(outcome, err); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		}),
	}
	addCmd.Flags().StringVar(&parentID, "parent", "", "id of the comment to reply to")

	rateCmd := func(use, short string, increment bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, args []string, m *thread.Manager) error {
				c, outcome, err := m.ChangeRating(cmd.Context(), args[0], increment)
				if err = result(outcome, err); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s rating %d\n", c.ID, c.Rating)
				return nil
			}),
		}
	}

	favCmd := &cobra.Command{
		Use:   "fav <id>",
		Short: "Toggle the favorite mark of a comment",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, m *thread.Manager) error {
			c, outcome, err := m.ToggleFavorite(cmd.Context(), args[0])
			if err = result(outcome, err); err != nil {
				return err
			}
			state := "removed from favorites"
			if c.IsFavorite {
				state = "added to favorites"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.ID, state)
			return nil
		}),
	}

	var (
		sortField     string
		ascending     bool
		favoritesOnly bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the comment tree",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, m *thread.Manager) error {
			field, ok := thread.ParseSortField(strings.ToLower(strings.TrimSpace(sortField)))
			if !ok {
				return fmt.Errorf("unknown sort field %q", sortField)
			}
			opt := m.SetSortOption(field)
			if ascending != (opt.Direction == thread.Ascending) {
				m.SetSortOption(field)
			}
			if favoritesOnly {
				m.ToggleShowFavorites()
			}
			printTree(cmd.OutOrStdout(), m)
			return nil
		}),
	}
	listCmd.Flags().StringVar(&sortField, "sort", string(thread.SortByDate), "date, rating, activity or replies")
	listCmd.Flags().BoolVar(&ascending, "asc", false, "sort ascending")
	listCmd.Flags().BoolVar(&favoritesOnly, "favorites", false, "only favorite comments")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of comments at every depth",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, m *thread.Manager) error {
			fmt.Fprintln(cmd.OutOrStdout(), m.CommentCount())
			return nil
		}),
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the change feed until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.NewConsole(logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.NATS.URL == "" {
				return errors.New("NATS_URL is not set")
			}
			nc, err := natsconn.Connect(natsconn.FromConfig(cfg.NATS, "commentctl", log))
			if err != nil {
				return err
			}
			defer nc.Close()
			out := cmd.OutOrStdout()
			return events.Subscribe(cmd.Context(), nc, log, func(subject string, ev events.Event) {
				fmt.Fprintf(out, "%s %s %s %v\n", ev.OccurredAt.Format("15:04:05"), subject, ev.CommentID, ev.Properties)
			})
		},
	}

	root.AddCommand(
		addCmd,
		rateCmd("up", "Rate a comment up", true),
		rateCmd("down", "Rate a comment down", false),
		favCmd,
		listCmd,
		countCmd,
		watchCmd,
	)
	return root
}

func result(outcome thread.Outcome, err error) error {
	if err != nil {
		return err
	}
	if outcome != thread.Applied {
		return fmt.Errorf("%w: %s", errRejected, strings.TrimPrefix(outcome.String(), "rejected: "))
	}
	return nil
}
