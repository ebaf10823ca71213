package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vocabflow/internal/gateway"
	"vocabflow/internal/logging"
	"vocabflow/internal/presenter"
	"vocabflow/internal/session"
	"vocabflow/internal/validation"
)

const envPrefix = "vocabflow"

// settings is everything a command needs, resolved from flags, the
// environment and the optional config file
type settings struct {
	BackendURL string
	MediaURL   string
	Username   string
	Password   string
	SkipPolicy session.SkipPolicy
	CSRFSource gateway.CSRFSource
	CSRFToken  string
	Timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(viper.New())
}

func newRootCmdWith(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "vocabflow",
		Short:         "Study vocabulary from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(v); err != nil {
				return err
			}
			slog.SetDefault(logging.New(os.Stderr, v.GetString("log-level"), "text"))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.vocabflow.yaml)")
	flags.String("backend", "http://localhost:8000", "vocabulary backend URL")
	flags.String("media", "", "base URL for audio and images (default: backend URL)")
	flags.StringP("username", "u", "", "backend username")
	flags.String("password", "", "backend password (prefer VOCABFLOW_PASSWORD)")
	flags.String("skip-policy", string(session.SkipLocal), "what skip does on a question: local or submit")
	flags.String("csrf-source", string(gateway.CSRFFromCookie), "where the backend CSRF token comes from: cookie or static")
	flags.String("csrf-token", "", "backend CSRF token when --csrf-source=static")
	flags.Duration("timeout", 15*time.Second, "backend request timeout")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	_ = v.BindPFlags(flags)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newTopicsCmd(v),
		newStudyCmd(v),
		newReviewCmd(v),
		newNotebookCmd(v),
		newStatsCmd(v),
	)
	return root
}

func readConfig(v *viper.Viper) error {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigName(".vocabflow")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && v.GetString("config") == "" {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func loadSettings(v *viper.Viper) (*settings, error) {
	policy, err := session.ParseSkipPolicy(v.GetString("skip-policy"))
	if err != nil {
		return nil, err
	}
	source, err := gateway.ParseCSRFSource(v.GetString("csrf-source"))
	if err != nil {
		return nil, err
	}

	s := &settings{
		BackendURL: v.GetString("backend"),
		MediaURL:   v.GetString("media"),
		Username:   strings.TrimSpace(v.GetString("username")),
		Password:   v.GetString("password"),
		SkipPolicy: policy,
		CSRFSource: source,
		CSRFToken:  v.GetString("csrf-token"),
		Timeout:    v.GetDuration("timeout"),
	}
	if s.MediaURL == "" {
		s.MediaURL = s.BackendURL
	}
	if err := validation.ValidateUsername(s.Username); err != nil {
		return nil, fmt.Errorf("%w (set --username or VOCABFLOW_USERNAME)", err)
	}
	if err := validation.ValidatePassword(s.Password); err != nil {
		return nil, fmt.Errorf("%w (set VOCABFLOW_PASSWORD)", err)
	}
	return s, nil
}

// connect logs in and returns a client holding the backend session
func connect(ctx context.Context, s *settings) (*gateway.Client, error) {
	client, err := gateway.New(s.BackendURL,
		gateway.WithTimeout(s.Timeout),
		gateway.WithCSRF(s.CSRFSource, s.CSRFToken),
		gateway.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, err
	}
	if _, err := client.Login(ctx, s.Username, s.Password); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return client, nil
}

func (s *settings) presenter() *presenter.Presenter {
	return presenter.New(s.MediaURL)
}
