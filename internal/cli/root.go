// Package cli wires the oxiwl subcommands.
package cli

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiDB/OxiWL/internal/config"
	"github.com/parisxmas/OxiDB/OxiWL/internal/gelf"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "oxiwl",
	Short: "OxiWL - IP whitelist administration",
	Long: `OxiWL keeps a whitelist of IP addresses in OxiDB.

Commands:
  api      - whitelist HTTP API
  console  - operator console backend
  login    - sign in from the terminal`,
	SilenceUsage: true,
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, .toml or .yaml (default: $"+config.PathEnv+")")
	rootCmd.AddCommand(apiCmd, consoleCmd, loginCmd)
}

// loadConfig reads the configuration and enables GELF forwarding for
// service when an address is configured.
func loadConfig(service string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr, service)
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}
	return cfg, nil
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Printf("Shutting down %s", srv.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
