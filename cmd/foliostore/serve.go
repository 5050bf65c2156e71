package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/foliodb/folio/pkg/api"
	"github.com/foliodb/folio/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the store and serve /health, /ready, and /metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		rs, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer rs.Close()

		srv := api.NewServer(rs, Version)
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(addr); err != nil {
				errCh <- err
			}
		}()
		fmt.Printf("admin server listening on %s\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutting down")
		case err := <-errCh:
			return fmt.Errorf("admin server: %w", err)
		}
		return srv.Stop()
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:9090", "Admin server listen address")
}
