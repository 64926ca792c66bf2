package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexdraft/internal/shell"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser shell",
	Long:  `Starts a local web shell with research chat, document analysis, clause search and the drafting workspace. Each browser tab gets its own session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// The shell's request log is the point of the command.
		log.SetOutput(os.Stderr)

		port := cfg.Shell.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv := shell.New(shell.Config{
			Port:         port,
			AllowAll:     cfg.Shell.AllowAllOrigins,
			ResultCount:  cfg.ResultCount,
			ClauseTopK:   cfg.ClauseTopK,
			Jurisdiction: cfg.Jurisdiction,
			ExportFormat: string(cfg.ExportFormat),
		}, newClient(cfg))

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down shell...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "lexdraft shell v%s listening on http://localhost:%d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Backend: %s\n", cfg.BaseURL)
		fmt.Fprintf(os.Stderr, "  Jurisdiction: %s\n", cfg.Jurisdiction)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}
