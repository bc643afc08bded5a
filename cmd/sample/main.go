// Command sample runs a small user API built with xroute.
//
// Run:
//
//	go run ./cmd/sample serve
//
// Generate the OpenAPI document:
//
//	go run ./cmd/sample spec                  # JSON to stdout
//	go run ./cmd/sample spec -f yaml -o api.yaml
//	go run ./cmd/sample validate
//
// Then explore:
//
//	GET    http://localhost:8080/openapi.json
//	GET    http://localhost:8080/docs
//	GET    http://localhost:8080/health
//	POST   http://localhost:8080/tokens      {"subject": "alice"}
//	GET    http://localhost:8080/users
//	POST   http://localhost:8080/users       (bearer token)
//	GET    http://localhost:8080/users/{id}
//	DELETE http://localhost:8080/users/{id}  (bearer token)
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bjaus/xroute"
	"github.com/bjaus/xroute/cmd/sample/internal/config"
	"github.com/bjaus/xroute/cmd/sample/internal/routes"
	"github.com/bjaus/xroute/jwtauth"
)

// routesDir is the directory of routes.Sources that holds router files.
const routesDir = "."

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "sample",
		Short:         "sample serves and documents a small user API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./sample.yaml)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})))
		routes.Setup(routes.Deps{
			Store: routes.NewStore(
				routes.User{Name: "Alice", Email: "alice@example.com", Role: "admin"},
				routes.User{Name: "Bob", Email: "bob@example.com", Role: "member"},
			),
			Auth: jwtauth.Config{
				Secret: []byte(cfg.Auth.Secret),
				TTL:    cfg.Auth.TTL,
				Issuer: cfg.Auth.Issuer,
			},
		})
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load), newSpecCmd(load), newValidateCmd(load))
	return root
}

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			srv, err := newServer(ctx, cfg)
			if err != nil {
				return err
			}

			slog.Info("starting server", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("server stopped")
			return nil
		},
	}
}

func newSpecCmd(load func() (*config.Config, error)) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Print the OpenAPI document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			doc, err := newDocument(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out) //nolint:gosec // user-provided CLI flag
				if err != nil {
					return err
				}
				defer func() {
					if err := f.Close(); err != nil {
						slog.Error("failed to close output file", "err", err)
					}
				}()
				w = f
			}

			switch format {
			case "json":
				return doc.WriteJSON(w)
			case "yaml":
				return doc.WriteYAML(w)
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newValidateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the generated OpenAPI document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			doc, err := newDocument(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := doc.Validate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "document is valid")
			return nil
		},
	}
}

func newServer(ctx context.Context, cfg *config.Config) (*xroute.Server, error) {
	srv := xroute.NewServer(
		xroute.WithLogger(slog.Default()),
		xroute.WithErrorObserver(func(ev xroute.FailureEvent) {
			if xroute.ErrorStatus(ev.Err) >= http.StatusInternalServerError {
				slog.Warn("server error", "event", ev.ID, "endpoint", ev.Endpoint)
			}
		}),
	)

	srv.Use(xroute.Recovery())
	srv.Use(xroute.RequestID())
	srv.Use(xroute.Logger(slog.Default(), xroute.SkipPaths("/health")))
	srv.Use(xroute.Timeout(cfg.Server.Timeout))
	if cfg.RateLimit.Rate > 0 {
		srv.Use(xroute.RateLimit(xroute.RateLimitConfig{Rate: cfg.RateLimit.Rate, Burst: cfg.RateLimit.Burst}))
	}

	loader := xroute.NewCatalogLoader(routes.Sources, nil)
	if err := srv.LoadDir(ctx, loader, routesDir); err != nil {
		return nil, err
	}

	doc, err := newDocument(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv.ServeSpec("/openapi.json", doc)
	srv.ServeSpecYAML("/openapi.yaml", doc)
	srv.ServeDocs("/docs", xroute.WithDocsTitle(cfg.Docs.Title))
	return srv, nil
}

func newDocument(ctx context.Context, cfg *config.Config) (*xroute.Document, error) {
	components := xroute.NewComponents()
	xroute.AddSchemaFor[routes.User](components, "User")
	components.AddSecurityScheme(jwtauth.SchemeName, jwtauth.SecurityScheme())

	doc := xroute.NewDocument(
		xroute.WithTitle(cfg.Docs.Title),
		xroute.WithVersion(cfg.Docs.Version),
		xroute.WithServers(cfg.Docs.Servers...),
		xroute.WithComponents(components),
	)

	defaults := &xroute.Operation{
		Responses: xroute.Responses{
			"500": {Description: "Internal error"},
		},
	}
	loader := xroute.NewCatalogLoader(routes.Sources, nil)
	if err := doc.LoadDir(ctx, loader, routesDir, xroute.WithDefaults(defaults)); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
