package cli

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiDB/OxiWL/internal/apiclient"
	"github.com/parisxmas/OxiDB/OxiWL/internal/config"
	"github.com/parisxmas/OxiDB/OxiWL/internal/console"
	"github.com/parisxmas/OxiDB/OxiWL/internal/session"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Serve the operator console backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig("oxiwl-console")
		if err != nil {
			return err
		}
		return runConsole(cmd.Context(), cfg)
	},
}

// consoleConfig maps the file/env page settings onto the console's.
func consoleConfig(c config.ConsoleConfig) console.Config {
	page := func(p config.PageConfig) console.PageOptions {
		return console.PageOptions{PageSize: p.PageSize, ShowLoading: p.Loader, Notify: p.Toasts}
	}
	return console.Config{
		Dashboard: page(c.Dashboard),
		AuditLog:  page(c.AuditLog),
		PageLimit: c.PageLimit,
	}
}

func runConsole(ctx context.Context, cfg *config.Config) error {
	api := apiclient.New(apiclient.Config{BaseURL: cfg.Console.APIURL, Timeout: cfg.Console.APITimeout})
	sessions := session.NewStore(session.Config{
		IdleTTL: cfg.Console.SessionTTL,
		Secure:  cfg.Console.SecureCookies,
	})
	go sessions.Run(ctx, time.Minute)

	h := console.New(api, sessions, consoleConfig(cfg.Console))
	log.Printf("OxiWL console starting on %s (API %s)", cfg.Console.Addr, cfg.Console.APIURL)
	return serve(ctx, &http.Server{Addr: cfg.Console.Addr, Handler: h.Routes(), ReadHeaderTimeout: 10 * time.Second})
}
