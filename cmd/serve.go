// File: cmd/serve.go
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/demoapp"
	"github.com/2300033498-rgb/LoginTesting/internal/observability"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bundled demo login application",
		Long:  `Serves the login page, dashboard and JSON API that the bundled features are written against. Stops on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := demoapp.New(observability.GetLogger(), config.Get().DemoApp)
			if err != nil {
				return err
			}
			return server.ListenAndServe(cmd.Context())
		},
	}

	serveCmd.Flags().String("addr", ":3000", "Listen address")
	_ = viper.BindPFlag("demoapp.addr", serveCmd.Flags().Lookup("addr"))

	return serveCmd
}
