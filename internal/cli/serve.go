package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbenzar/stovewatch/internal/notify"
	"github.com/kbenzar/stovewatch/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose detection and timer control over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		log := newLogger()
		defer log.Sync()

		store, closeStore, err := openStore(log)
		if err != nil {
			exitErr("opening store", err)
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		notifier := notify.NewTerminalNotifier(log, nil)
		srv := server.New(log, store, notifier)
		if err := srv.Run(ctx, serveAddr); err != nil && err != http.ErrServerClosed {
			exitErr("running server", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "HTTP listen address")
	RootCmd.AddCommand(serveCmd)
}
