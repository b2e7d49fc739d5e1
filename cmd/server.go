package cmd

import (
	"net/http"
	"strings"

	"reqbook/api"
	"reqbook/config"
	"reqbook/logger"

	"github.com/spf13/cobra"
)

var standaloneServerPort string

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the notebook UI and API server",
	Run: func(cmd *cobra.Command, args []string) {
		portToUse := standaloneServerPort
		if portToUse == "" {
			portToUse = config.AppConfig.Server.Port
		}
		if portToUse == "" {
			portToUse = "8790"
		}

		apiRouter := api.NewRouter()

		staticFileDir := "./static"
		fileServer := http.FileServer(http.Dir(staticFileDir))

		mainMux := http.NewServeMux()
		mainMux.Handle("/api/", http.StripPrefix("/api", apiRouter))
		mainMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				// Safeguard; the /api/ handle above should have matched.
				http.StripPrefix("/api", apiRouter).ServeHTTP(w, r)
				return
			}
			fileServer.ServeHTTP(w, r)
		})

		logger.Info("Server starting on :%s (static files from %s)", portToUse, staticFileDir)
		if err := http.ListenAndServe(":"+portToUse, mainMux); err != nil {
			logger.Fatal("Could not start server: %v", err)
		}
	},
}

func init() {
	serverCmd.Flags().StringVarP(&standaloneServerPort, "port", "p", "", "Port for the server to listen on (overrides config/default)")
	rootCmd.AddCommand(serverCmd)
}
