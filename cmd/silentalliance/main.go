package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aadidesign/SilentAlliance/internal/config"
	httpapp "github.com/aadidesign/SilentAlliance/internal/http"
	"github.com/aadidesign/SilentAlliance/internal/observability/logger"
	"github.com/aadidesign/SilentAlliance/internal/security/secretbox"
	"github.com/aadidesign/SilentAlliance/internal/store/pg"
	migrations "github.com/aadidesign/SilentAlliance/migrations/postgres"
)

func main() {
	// .env es opcional; las variables del sistema siempre ganan.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "silentalliance",
		Short: "Pseudonymous authentication service",
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path al YAML de configuración")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(migrateCmd(&configPath))
	root.AddCommand(cleanupCmd(&configPath))
	root.AddCommand(keygenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       os.Getenv("LOG_LEVEL"),
				ServiceName: "silentalliance",
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := httpapp.NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			log.Info("server starting", logger.String("addr", cfg.Server.Addr), logger.String("env", cfg.App.Env))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return app.Start(gctx, cfg.Server.Addr)
			})

			if err := g.Wait(); err != nil {
				log.Error("server stopped with error", logger.Err(err))
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Aplica las migraciones del esquema core",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "pg" {
				return fmt.Errorf("migrate requiere storage.driver=pg")
			}

			db, err := sql.Open("pgx", cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			defer db.Close()

			goose.SetBaseFS(migrations.CoreFS)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}

			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			switch action {
			case "up":
				return goose.Up(db, migrations.CoreDir)
			case "down":
				return goose.Down(db, migrations.CoreDir)
			case "status":
				return goose.Status(db, migrations.CoreDir)
			default:
				return fmt.Errorf("acción desconocida: %s", action)
			}
		},
	}
	return cmd
}

// cleanupCmd purga del ledger los refresh tokens vencidos fuera de la ventana
// de retención. Pensado para correr desde cron; el camino caliente nunca borra.
func cleanupCmd(configPath *string) *cobra.Command {
	var retain time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purga refresh tokens vencidos del ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "pg" {
				return fmt.Errorf("cleanup requiere storage.driver=pg")
			}

			ctx := cmd.Context()
			store, err := pg.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Tokens().DeleteExpired(ctx, retain)
			if err != nil {
				return err
			}
			fmt.Printf("purged: %d\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retain, "retain", 720*time.Hour, "conserva registros vencidos durante esta ventana")
	return cmd
}

// keygenCmd genera el seed de firma JWT. Con SECRETBOX_MASTER_KEY presente
// lo imprime cifrado, listo para pegar en jwt.signing_seed.
func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Genera un seed ed25519 para firmar access tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := make([]byte, ed25519.SeedSize)
			if _, err := rand.Read(seed); err != nil {
				return err
			}
			seedB64 := base64.StdEncoding.EncodeToString(seed)

			priv := ed25519.NewKeyFromSeed(seed)
			pub := priv.Public().(ed25519.PublicKey)
			fmt.Printf("public_key: %s\n", base64.StdEncoding.EncodeToString(pub))

			if secretbox.IsReady() {
				enc, err := secretbox.Encrypt(seedB64)
				if err != nil {
					return err
				}
				fmt.Printf("signing_seed (secretbox): %s\n", enc)
				return nil
			}

			fmt.Printf("signing_seed (plaintext): %s\n", seedB64)
			fmt.Println("aviso: sin SECRETBOX_MASTER_KEY el seed se imprime en claro")
			return nil
		},
	}
}
