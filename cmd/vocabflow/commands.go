package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"vocabflow/internal/gateway"
	"vocabflow/internal/models"
	"vocabflow/internal/presenter"
	"vocabflow/internal/session"
	"vocabflow/internal/terminal"
)

// withClient resolves settings, logs in and logs out again afterwards
func withClient(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, s *settings, c *gateway.Client) error) error {
	s, err := loadSettings(v)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	client, err := connect(ctx, s)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Logout(context.WithoutCancel(ctx)); err != nil {
			slog.Debug("Backend logout failed", "error", err)
		}
	}()
	return fn(ctx, s, client)
}

func newTopicsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics and your progress in each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, s *settings, c *gateway.Client) error {
				topics, err := c.Topics(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, terminal.NewRenderer(out).Topics(s.presenter().Topics(topics)))
				return nil
			})
		},
	}
}

func newStudyCmd(v *viper.Viper) *cobra.Command {
	var topicID int64
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Study the flashcards of one topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if topicID <= 0 {
				return fmt.Errorf("--topic must be a positive topic id")
			}
			return withClient(cmd, v, func(ctx context.Context, s *settings, c *gateway.Client) error {
				save := func(ctx context.Context, vocabularyID int64) error {
					_, err := c.AddToNotebook(ctx, vocabularyID, "")
					return err
				}
				return runSession(ctx, cmd, s, c, models.TopicScope(topicID), save)
			})
		},
	}
	cmd.Flags().Int64VarP(&topicID, "topic", "t", 0, "topic id (see vocabflow topics)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newReviewCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review the words saved in your notebook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, s *settings, c *gateway.Client) error {
				return runSession(ctx, cmd, s, c, models.NotebookScope(), nil)
			})
		},
	}
}

func runSession(ctx context.Context, cmd *cobra.Command, s *settings, c *gateway.Client, scope models.Scope, save terminal.Saver) error {
	ctrl := session.New(c, scope, session.Options{SkipPolicy: s.SkipPolicy, Logger: slog.Default()})
	return terminal.NewSession(ctrl, s.presenter(), cmd.InOrStdin(), cmd.OutOrStdout(), save).Run(ctx)
}

func newNotebookCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "notebook",
		Short: "List the words saved in your notebook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, s *settings, c *gateway.Client) error {
				entries, err := c.ListNotebook(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, terminal.NewRenderer(out).Notebook(s.presenter().Notebook(entries)))
				return nil
			})
		},
	}
}

func newStatsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your study statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, v, func(ctx context.Context, s *settings, c *gateway.Client) error {
				var (
					profile *models.Profile
					stats   *models.Stats
				)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) {
					profile, err = c.Profile(gctx)
					return err
				})
				g.Go(func() (err error) {
					stats, err = c.Stats(gctx)
					return err
				})
				if err := g.Wait(); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Signed in as %s\n\n", profile.Username)
				fmt.Fprintln(out, terminal.NewRenderer(out).Dashboard(presenter.Dashboard(*stats)))
				return nil
			})
		},
	}
}
