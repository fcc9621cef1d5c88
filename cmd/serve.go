package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/laborconnect/internal/httpapi"
	"github.com/spigell/laborconnect/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the directory, selection and smart match over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", httpapi.DefaultListen, "address to listen on")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := setup()
	b.logger.Info("starting the laborconnect", zap.String("version", version))

	controller := newController(b)
	defer controller.Close()

	server := httpapi.NewServer(b.store, controller, b.config.Filters, logger.Named(b.logger, "http"))
	if err := httpapi.ListenAndServe(ctx, b.config.Server.Listen, server.Router(), b.logger); err != nil {
		b.logger.Fatal("serving http", zap.Error(err))
	}
}
