package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hostboard/internal/analytics"
	"github.com/dropDatabas3/hostboard/internal/auth"
	"github.com/dropDatabas3/hostboard/internal/community"
	"github.com/dropDatabas3/hostboard/internal/config"
	"github.com/dropDatabas3/hostboard/internal/draft"
	"github.com/dropDatabas3/hostboard/internal/http/server"
	"github.com/dropDatabas3/hostboard/internal/negotiate"
	"github.com/dropDatabas3/hostboard/internal/observability/logger"
	"github.com/dropDatabas3/hostboard/internal/slug"
	"github.com/dropDatabas3/hostboard/internal/tui"
)

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

type app struct {
	configPath string
	logFile    string
	out        string // "json" | "text"
	cfg        *config.Config
}

func (a *app) print(v any, text string) {
	if a.out == "json" {
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Println(text)
}

func main() {
	_ = godotenv.Load()
	a := &app{}

	root := &cobra.Command{
		Use:           "hostboard",
		Short:         "CLI de la comunidad de Hostboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			lc := logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "hostboard-cli"}
			if a.logFile != "" {
				f, err := os.OpenFile(a.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("log file: %w", err)
				}
				lc.Output = f
			}
			logger.Init(lc)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) { _ = logger.Sync() },
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", envOr("CONFIG_PATH", ""), "ruta a config.yaml (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", envOr("HOSTBOARD_LOG_FILE", ""), "escribe logs a un archivo (env HOSTBOARD_LOG_FILE)")
	root.PersistentFlags().StringVar(&a.out, "out", envOr("HOSTBOARD_OUT", "text"), "Formato de salida: json|text")

	root.AddCommand(a.browseCmd(), a.slugCmd(), a.candidatesCmd(), a.postCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Listado con scroll infinito y búsqueda sobre lo cargado",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.logFile == "" {
				// El TUI ocupa la pantalla: sin archivo no hay logs.
				logger.Replace(zap.NewNop())
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			backend, err := server.OpenBackend(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()
			c, err := server.OpenCache(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			feed := community.NewFeed(backend, c, community.FeedConfig{
				PageSize: a.cfg.Listing.PageSize,
				MaxLimit: a.cfg.Listing.MaxLimit,
				SeedTTL:  a.cfg.Listing.SeedTTL,
			})
			seed, err := feed.Seed(ctx)
			if err != nil {
				return err
			}

			b := tui.NewBrowse(ctx, "Comunidad", feed.Fetcher(), community.ListingConfig{
				PageSize:      a.cfg.Listing.PageSize,
				DebounceDelay: a.cfg.Search.DebounceDelay,
				// el viewport mide en líneas; el margen configurado es en px
				ScrollMargin: max(1, a.cfg.Scroll.Margin/20),
			})
			defer b.Close()
			if err := b.Mount(seed); err != nil {
				return err
			}

			_, err = tea.NewProgram(b, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

func (a *app) slugCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "slug <title>",
		Short: "Muestra el slug de un título (con --check resuelve colisiones)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if !check {
				base := slug.Slugify(title)
				a.print(slug.Claim{Base: base, Resolved: base}, base)
				return nil
			}
			backend, err := server.OpenBackend(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			claim, err := slug.NewResolver(backend, slug.WithMaxProbes(a.cfg.Slug.MaxProbes)).Resolve(cmd.Context(), title)
			if err != nil {
				return err
			}
			a.print(claim, fmt.Sprintf("%s (%s)", claim.Resolved, claim.Mode))
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "consulta el backend para evitar colisiones")
	return cmd
}

func (a *app) candidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "Lista los candidatos de escritura en el orden en que se prueban",
		RunE: func(cmd *cobra.Command, args []string) error {
			neg, err := server.NewNegotiator(nil, a.cfg)
			if err != nil {
				return err
			}
			cands := neg.Candidates()
			lines := make([]string, len(cands))
			for i, c := range cands {
				lines[i] = fmt.Sprintf("%d. %s", i+1, c)
			}
			a.print(cands, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func (a *app) postCmd() *cobra.Command {
	var (
		title, body, token, contentID string
		tags                          []string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publica una pregunta negociando la operación de escritura",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			verifier := auth.NewVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer)
			var sess *auth.Session
			if token != "" {
				s, err := verifier.Verify(token)
				if err != nil {
					return err
				}
				sess = s
			}

			backend, err := server.OpenBackend(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()
			c, err := server.OpenCache(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			neg, err := server.NewNegotiator(backend, a.cfg)
			if err != nil {
				return err
			}
			composer := community.NewComposer(
				slug.NewResolver(backend, slug.WithMaxProbes(a.cfg.Slug.MaxProbes)), neg,
				community.WithAnalytics(analytics.NewLogSink(logger.Named("analytics"))),
				community.WithDrafts(draft.NewStore(c, draft.WithTTL(a.cfg.Drafts.TTL))),
				community.WithSignInURL(a.cfg.Auth.SignInURL),
			)

			created, err := composer.Submit(ctx, sess, community.Input{
				ContentID: contentID, Title: title, Body: body, Tags: tags,
			}, "/community/new")
			var ex *negotiate.ExhaustedError
			var ue *community.UnauthenticatedError
			switch {
			case errors.As(err, &ex):
				fmt.Fprintln(os.Stderr, ex.Trail.String())
				return err
			case errors.As(err, &ue):
				return fmt.Errorf("se requiere sesión (--token o HOSTBOARD_TOKEN); iniciar en %s", ue.SignInURL)
			case err != nil:
				return err
			}
			a.print(created, fmt.Sprintf("creada %s vía %s (%d intentos)", created.Slug, created.Operation, created.Attempts))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "título")
	cmd.Flags().StringVar(&body, "body", "", "cuerpo")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repetible)")
	cmd.Flags().StringVar(&contentID, "content-id", "", "id del borrador a descartar tras publicar")
	cmd.Flags().StringVar(&token, "token", envOr("HOSTBOARD_TOKEN", ""), "token de sesión (env HOSTBOARD_TOKEN)")
	return cmd
}
