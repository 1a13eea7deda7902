package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/internal/version"
	"github.com/mscrnt/emgd_confgen/pkg/server"
)

func serveCmd() *cobra.Command {
	config := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generator form over HTTP",
		Long: `Serve the configuration form and generator over HTTP.

The server exposes the following endpoints:
  /                  - Form page
  /generate          - POST a form (URL-encoded, JSON or TOML), returns the configuration
  /timing            - Timing representations
  /timing/translate  - POST {"from", "to", "values"}, returns the converted timing
  /presets           - DTD presets
  /controls          - Driver option controls (?scope=config|port)
  /attributes        - Port attributes (?port=lvds|sdvo)
  /health            - Health check endpoint

Examples:
  # Serve on localhost
  emgdconf serve

  # Serve with TLS and client certificate verification
  emgdconf serve --addr :8443 --cert server.pem --key server.key --ca ca.pem

  # Using environment variables
  export EMGDCONF_CERT=server.pem
  export EMGDCONF_KEY=server.key
  emgdconf serve --addr :8443`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if config.CertFile == "" {
				config.CertFile = os.Getenv("EMGDCONF_CERT")
			}
			if config.KeyFile == "" {
				config.KeyFile = os.Getenv("EMGDCONF_KEY")
			}
			if config.CAFile == "" {
				config.CAFile = os.Getenv("EMGDCONF_CA")
			}
			config.Version = version.GetVersion(buildVersion, buildCommit, buildTime)

			srv, err := server.NewServer(config)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				errChan <- srv.Start()
			}()

			scheme := "http"
			if config.TLSEnabled() {
				scheme = "https"
			}
			fmt.Printf("Generator server listening on %s://%s\n", scheme, config.Addr)
			fmt.Println("\nPress Ctrl+C to stop...")

			select {
			case sig := <-sigChan:
				fmt.Printf("\nReceived signal: %v\n", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					return fmt.Errorf("shutdown error: %w", err)
				}
				fmt.Println("Server stopped gracefully")
				return nil

			case err := <-errChan:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&config.Addr, "addr", config.Addr, "Address to listen on")
	cmd.Flags().StringVar(&config.CertFile, "cert", "", "Server certificate file (enables TLS)")
	cmd.Flags().StringVar(&config.KeyFile, "key", "", "Server private key file")
	cmd.Flags().StringVar(&config.CAFile, "ca", "", "CA certificate file for client verification (enables mTLS)")
	cmd.Flags().StringVar(&config.TablesDir, "tables", "", "Directory overriding the built-in reference tables")
	cmd.Flags().StringVar(&config.TemplatesDir, "templates", "", "Directory overriding the built-in templates")
	cmd.Flags().BoolVar(&config.HostInfo, "host-info", false, "Write the host name and platform into generated headers")
	cmd.Flags().StringVar(&config.LogFile, "log", "", "Log file path (optional)")

	return cmd
}
