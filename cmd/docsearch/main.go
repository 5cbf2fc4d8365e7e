/*
docsearch drives an interactive document search session against an
indexing backend.

The default command starts the msgpack IPC server on stdin/stdout so
editor plugins can drive a session; `repl` opens a terminal console for
the same session flow, and `search` runs a single query and prints the
first result page.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	console "github.com/mvillard/docsearch/internal/cli"
	"github.com/mvillard/docsearch/internal/logger"
	"github.com/mvillard/docsearch/pkg/backend"
	"github.com/mvillard/docsearch/pkg/config"
	"github.com/mvillard/docsearch/pkg/query"
	"github.com/mvillard/docsearch/pkg/results"
	"github.com/mvillard/docsearch/pkg/server"
	"github.com/mvillard/docsearch/pkg/session"
	"github.com/mvillard/docsearch/pkg/suggest"
)

const (
	Version = "0.3.0-beta"
	AppName = "docsearch"
)

func main() {
	app := &cli.App{
		Name:    AppName,
		Usage:   "Interactive search sessions over a document indexing backend",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config.toml",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Backend base URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "role",
				Usage: "Session role sent with every request",
				Value: "user",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Bearer token sent with every request",
			},
			&cli.StringFlag{
				Name:  "vocab",
				Usage: "Vocabulary snapshot for offline completions",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Toggle debug logging",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the msgpack IPC server on stdin/stdout",
				Action: serveCommand,
			},
			{
				Name:   "repl",
				Usage:  "Open the interactive console",
				Action: replCommand,
			},
			{
				Name:      "search",
				Usage:     "Run one query and print the first result page",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Match mode: or, all_words_and, exact",
						Value: "or",
					},
					&cli.StringSliceFlag{
						Name:  "type",
						Usage: "Restrict to a document type (repeatable)",
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	sigHandler()
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// sigHandler exits cleanly on interrupt so the IPC peer sees EOF.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func setupLogging(c *cli.Context) error {
	// Stdout carries IPC and command output, so all logging goes to stderr.
	log.SetDefault(logger.New(AppName))
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	log.SetStyles(styles)
	return nil
}

// runtime holds the shared pieces every command needs.
type runtime struct {
	cfg        *config.Config
	client     *backend.Client
	controller *session.Controller
	provider   suggest.Provider
	engine     *suggest.Engine
}

func (rt *runtime) close() {
	rt.engine.Close()
	rt.controller.Close()
}

// bootstrap wires config, backend client, session controller, completion
// provider and suggestion engine.
func bootstrap(c *cli.Context) (*runtime, error) {
	cfg, path, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Debugf("Using config file: %s", path)
	}
	if url := c.String("backend"); url != "" {
		cfg.Search.BaseURL = url
	}

	info := session.Info{Role: c.String("role"), Token: c.String("token")}
	client := backend.NewClient(cfg.Search.BaseURL, info)
	controller := session.NewController(client, info, session.WithPageSize(cfg.Search.PageSize))

	provider := completionProvider(c, client)
	engine := suggest.NewEngine(provider,
		suggest.WithDebounce(time.Duration(cfg.Suggest.DebounceMs)*time.Millisecond),
		suggest.WithMinPrefix(cfg.Suggest.MinPrefix),
		suggest.WithLimit(cfg.Suggest.Limit),
	)
	return &runtime{
		cfg:        cfg,
		client:     client,
		controller: controller,
		provider:   provider,
		engine:     engine,
	}, nil
}

// completionProvider prefers a local vocabulary snapshot when one was
// given; otherwise completions go to the backend.
func completionProvider(c *cli.Context, client *backend.Client) suggest.Provider {
	vocabPath := c.String("vocab")
	if vocabPath == "" {
		return client
	}
	local := suggest.NewLocalProvider()
	if err := local.LoadVocabulary(vocabPath); err != nil {
		log.Warnf("Failed to load vocabulary from %s: %v. Using backend completions...", vocabPath, err)
		return client
	}
	log.Debugf("Loaded %d vocabulary words for offline completions", local.Len())
	return local
}

func serveCommand(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.close()

	srv := server.NewServer(rt.controller, rt.provider, rt.client, server.WithCloudConfig(results.ScaleConfig{
		TopN:     rt.cfg.Cloud.TopN,
		Exponent: rt.cfg.Cloud.Exponent,
		Scale:    rt.cfg.Cloud.Scale,
		Offset:   rt.cfg.Cloud.Offset,
	}))
	return srv.Start(context.Background())
}

func replCommand(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.close()

	repl := console.NewConsole(rt.engine, rt.controller, rt.client, rt.cfg.Snippet.Window, rt.cfg.Snippet.FallbackWords)
	return repl.Start(context.Background())
}

func searchCommand(c *cli.Context) error {
	rt, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer rt.close()

	q := rt.controller.Query()
	q.Text = strings.Join(c.Args().Slice(), " ")
	q.Mode = query.Mode(c.String("mode"))
	q.Types = c.StringSlice("type")

	if err := rt.controller.SubmitWait(context.Background(), q); err != nil {
		return err
	}
	console.NewConsole(rt.engine, rt.controller, rt.client, rt.cfg.Snippet.Window, rt.cfg.Snippet.FallbackWords).RenderPage()
	return nil
}
