package cmd

import (
	"reqbook/config"
	"reqbook/core"
	"reqbook/logger"

	"github.com/spf13/cobra"
)

var captureListenPort string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Starts the capture relay (a plain HTTP forward proxy that records exchanges)",
	Long: `Runs a forward proxy that records every plain-HTTP request/response
exchange passing through it into the capture log. Point a client's
HTTP proxy setting at it, browse the backend, then materialize
interesting exchanges as request cells from the notebook UI.`,
	Run: func(cmd *cobra.Command, args []string) {
		portToUse := captureListenPort
		if portToUse == "" {
			portToUse = config.AppConfig.Capture.Port
		}
		if portToUse == "" {
			portToUse = "8791"
		}

		if err := core.StartCaptureRelay(portToUse); err != nil {
			logger.Fatal("Could not start capture relay: %v", err)
		}
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureListenPort, "port", "p", "", "Port for the capture relay to listen on (overrides config/default)")
	rootCmd.AddCommand(captureCmd)
}
