package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"keyring/internal/client"
	"keyring/internal/console/clipboard"
	"keyring/internal/console/notify"
	"keyring/internal/console/session"
	"keyring/internal/pkg/logger"
	"keyring/internal/platform/config"
)

type globals struct {
	configPath string
	server     string
	token      string
	output     string
	verbose    bool
}

// app carries what every subcommand needs once the session is open.
type app struct {
	api     *client.Client
	session *session.Session
	notify  notify.Notifier
	clip    clipboard.Clipboard
	output  string
}

func main() {
	g := &globals{}
	root := &cobra.Command{
		Use:           "tokenctl",
		Short:         "Manage API tokens from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "configs/config.yaml", "path to config file")
	root.PersistentFlags().StringVar(&g.server, "server", "", "API base URL (overrides console.base_url)")
	root.PersistentFlags().StringVar(&g.token, "token", "", "session token (overrides console.access_token)")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "table", "output format: table, json or yaml")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log API calls")

	root.AddCommand(
		newLoginCmd(g),
		newListCmd(g),
		newGetCmd(g),
		newCreateCmd(g),
		newEditCmd(g),
		newToggleCmd(g),
		newBillingCmd(g),
		newDeleteCmd(g),
		newCopyCmd(g),
		newStatusCmd(g),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", client.Message(err))
		os.Exit(1)
	}
}

func (g *globals) load() (*config.Config, error) {
	path := g.configPath
	if _, err := os.Stat(path); err != nil {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Logger = logger.New(os.Stderr, "text")
	if g.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	if g.server != "" {
		cfg.Console.BaseURL = g.server
	}
	if g.token != "" {
		cfg.Console.AccessToken = g.token
	}
	return cfg, nil
}

func (g *globals) client() (*client.Client, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Console.BaseURL,
		client.WithAccessToken(cfg.Console.AccessToken),
		client.WithTimeout(cfg.Console.Timeout),
	), nil
}

// open starts a console session: the user and feature flags are read once here
// and shared by every component the command builds.
func (g *globals) open(ctx context.Context) (*app, error) {
	api, err := g.client()
	if err != nil {
		return nil, err
	}
	sess, err := session.Open(ctx, api)
	if err != nil {
		return nil, err
	}
	return &app{
		api:     api,
		session: sess,
		notify:  notify.NewLogNotifier(os.Stderr, false),
		clip:    clipboard.System{},
		output:  g.output,
	}, nil
}

func (a *app) close() {
	a.session.Close()
}
