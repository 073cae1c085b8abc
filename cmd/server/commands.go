package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/config"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/database"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/scheduler"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/server"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func capabilityTable(cfg *config.Config) (authz.Table, error) {
	if cfg.CapabilitiesFile == "" {
		return authz.DefaultTable(), nil
	}
	return authz.LoadTable(cfg.CapabilitiesFile)
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the auto-lock sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadE()
			if err != nil {
				return err
			}
			table, err := capabilityTable(cfg)
			if err != nil {
				return err
			}

			db := database.Init(cfg.DBDriver, cfg.DBDSN, cfg.AdminUsername, cfg.AdminPassword)
			engine := service.New(db)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go scheduler.Run(ctx, engine, cfg.AutoLockInterval)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
				Handler:           server.NewRouter(cfg, engine, table),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("starting server on %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Printf("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadE()
			if err != nil {
				return err
			}
			if _, err := openDB(cfg); err != nil {
				return err
			}
			fmt.Printf("%s schema is up to date (%s)\n", color.New(color.FgGreen).Sprint("✓"), cfg.DBDriver)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and one demo account per role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadE()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			created, err := database.Seed(db, cfg.AdminUsername, cfg.AdminPassword)
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Println(color.New(color.FgYellow).Sprint("nothing to seed, all accounts exist"))
				return nil
			}
			for _, u := range created {
				fmt.Printf("  %s %-28s %-12s %s\n", color.New(color.FgGreen).Sprint("+"), u.Username, u.Role, u.Password)
			}
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Lock every overdue task and checklist file once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadE()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			report, err := service.New(db).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			if len(report.Locked) == 0 {
				fmt.Println("no overdue items")
			}
			for _, ref := range report.Locked {
				fmt.Printf("  %s %s %d\n", color.New(color.FgRed).Sprint("locked"), ref.Kind, ref.ID)
			}
			for _, ref := range report.Skipped {
				fmt.Printf("  %s %s %d\n", color.New(color.FgYellow).Sprint("skipped"), ref.Kind, ref.ID)
			}
			return nil
		},
	}
}
