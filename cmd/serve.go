package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/petermgrund/paresthesias-analysis/internal/viewer"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <instances> <devices>",
	Short: "Serve the interactive per-subject threshold chart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			c.ViewerAddr = serveAddr
		}
		res, t, err := runPipeline(c, args[0], args[1])
		if err != nil {
			return err
		}
		printDiagnostics(os.Stderr, res)

		srv := &http.Server{
			Addr:              c.ViewerAddr,
			Handler:           viewer.New(res.Rows, t).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		errc := make(chan error, 1)
		go func() { errc <- srv.ListenAndServe() }()
		fmt.Printf("✓ Viewer for %d records listening on http://%s (Ctrl+C to stop)\n", len(res.Rows), c.ViewerAddr)

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		fmt.Println("✓ Viewer stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config viewer_addr)")
}
