package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/config"
	"github.com/soyeahso/frontdesk/internal/llm"
	"github.com/soyeahso/frontdesk/internal/store"
	"github.com/soyeahso/frontdesk/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show frontdesk status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ver, commit := version.Get()
			fmt.Printf("frontdesk %s (commit %s)\n\n", ver, commit)

			// Show paths
			fmt.Printf("Config:   %s\n", paths.Config)
			fmt.Printf("Data:     %s\n", paths.Data)
			fmt.Printf("Logs:     %s\n", paths.Logs)
			fmt.Println()

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Println("Config:   not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:   error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Gateway:  port=%d bind=%s auth=%s tls=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode, cfg.Gateway.TLS.Enabled)

			cat, err := catalog.Load(cfg.Business.CatalogPath)
			if err != nil {
				fmt.Printf("Catalog:  error loading: %v\n", err)
			} else {
				source := cfg.Business.CatalogPath
				if source == "" {
					source = "embedded"
				}
				fmt.Printf("Business: %s (%d services, %s catalog, default language %s)\n",
					cfg.Business.Name, len(cat.Active()), source, cfg.Business.DefaultLanguage)
			}

			registry := llm.NewRegistryFromConfig(cfg.Provider, log)
			if c := registry.Default(); c != nil {
				fmt.Printf("LLM:      %s model=%s (min interval %s, timeout %s)\n",
					c.Name(), cfg.Provider.Model, cfg.Throttle.MinInterval(), cfg.Throttle.JobTimeout())
			} else {
				fmt.Println("LLM:      (none, rules only)")
			}

			fmt.Printf("Session:  max age %s, sweep every %s, unclear cap %d\n",
				cfg.Session.MaxAge(), cfg.Session.SweepInterval, cfg.Dialog.UnclearCap)
			fmt.Printf("Hooks:    %d booking, %d session start, %d session end\n",
				len(cfg.Hooks.BookingCompleted), len(cfg.Hooks.SessionStart), len(cfg.Hooks.SessionEnd))

			dbPath := paths.StorePath(cfg.Store)
			if _, err := os.Stat(dbPath); err == nil {
				db, err := store.Open(dbPath, log)
				if err == nil {
					n, _ := store.NewBookingStore(db).Count(context.Background())
					fmt.Printf("Store:    %s (%d bookings)\n", dbPath, n)
					db.Close()
				}
			} else {
				fmt.Printf("Store:    %s (not created yet)\n", dbPath)
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
