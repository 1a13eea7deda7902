package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/pkg/cert"
)

func certCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Certificate management",
		Long:  "Issue and verify certificates for serving the generator with mTLS",
	}

	cmd.AddCommand(certInitCmd())
	cmd.AddCommand(certIssueCmd())
	cmd.AddCommand(certVerifyCmd())

	return cmd
}

func defaultCertDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".emgdconf", "certs"), nil
}

func certInitCmd() *cobra.Command {
	var (
		dir   string
		hosts []string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a CA with server and client certificates",
		Long: `Create a certificate authority plus one server and one client certificate.

Examples:
  # Create certificates in the default location
  emgdconf cert init

  # Create certificates for a named host
  emgdconf cert init --dir certs --host emgd-lab --host 10.0.0.5

  # Serve with them
  emgdconf serve --addr :8443 --cert certs/server.pem --key certs/server-key.pem --ca certs/ca.pem`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if dir == "" {
				var err error
				if dir, err = defaultCertDir(); err != nil {
					return err
				}
			}

			if !force {
				if _, err := os.Stat(filepath.Join(dir, cert.CAFile)); err == nil {
					return fmt.Errorf("CA certificate already exists in %s (use --force to overwrite)", dir)
				}
			}

			bundle, err := cert.Bootstrap(dir, hosts)
			if err != nil {
				return fmt.Errorf("failed to create certificates: %w", err)
			}

			fmt.Println("Certificates created successfully")
			fmt.Printf("CA Certificate:     %s\n", bundle.CA)
			fmt.Printf("CA Private Key:     %s\n", bundle.CAKey)
			fmt.Printf("Server Certificate: %s\n", bundle.Server)
			fmt.Printf("Client Certificate: %s\n", bundle.Client)
			fmt.Printf("\nServe with:\n  emgdconf serve --cert %s --key %s --ca %s\n",
				bundle.Server, bundle.ServerKey, bundle.CA)
			fmt.Println("\nIMPORTANT: Keep the private keys secure and backed up!")

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Certificate directory (default: ~/.emgdconf/certs)")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "Host names or IPs for the server certificate (default: localhost, 127.0.0.1)")
	cmd.Flags().BoolVar(&force, "force", false, "Force overwrite existing certificates")

	return cmd
}

func certIssueCmd() *cobra.Command {
	var (
		dir        string
		usage      string
		commonName string
		hosts      []string
		output     string
		keyOutput  string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a certificate from an existing CA",
		Long: `Issue another server or client certificate from a CA made by cert init.

Examples:
  # Another client certificate
  emgdconf cert issue --usage client --cn lab-browser --out lab.pem --key-out lab-key.pem

  # A server certificate for a new host
  emgdconf cert issue --usage server --host emgd-lab --out lab-server.pem --key-out lab-server-key.pem`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if dir == "" {
				var err error
				if dir, err = defaultCertDir(); err != nil {
					return err
				}
			}
			if output == "" || keyOutput == "" {
				return fmt.Errorf("--out and --key-out are required")
			}

			issuer, err := cert.LoadCA(filepath.Join(dir, cert.CAFile), filepath.Join(dir, cert.CAKeyFile))
			if err != nil {
				return fmt.Errorf("failed to load CA: %w (run 'emgdconf cert init' first)", err)
			}

			u := cert.Usage(usage)
			if commonName == "" {
				commonName = "emgdconf-" + usage
				if u == cert.UsageServer && len(hosts) > 0 {
					commonName = hosts[0]
				}
			}

			c, err := issuer.Issue(u, commonName, hosts)
			if err != nil {
				return fmt.Errorf("failed to issue certificate: %w", err)
			}
			if err := c.Save(output, keyOutput); err != nil {
				return fmt.Errorf("failed to save certificate: %w", err)
			}

			fmt.Printf("Issued %s certificate %q\n", c.Usage, commonName)
			fmt.Printf("Certificate: %s\n", output)
			fmt.Printf("Private Key: %s\n", keyOutput)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Certificate directory holding the CA (default: ~/.emgdconf/certs)")
	cmd.Flags().StringVar(&usage, "usage", string(cert.UsageClient), "Certificate usage: server or client")
	cmd.Flags().StringVar(&commonName, "cn", "", "Certificate common name")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "Host names or IPs (server certificates)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Certificate output file")
	cmd.Flags().StringVar(&keyOutput, "key-out", "", "Private key output file")

	return cmd
}

func certVerifyCmd() *cobra.Command {
	var (
		caFile string
		host   string
	)

	cmd := &cobra.Command{
		Use:   "verify CERT",
		Short: "Verify a certificate against the CA",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if caFile == "" {
				dir, err := defaultCertDir()
				if err != nil {
					return err
				}
				caFile = filepath.Join(dir, cert.CAFile)
			}

			result, err := cert.VerifyFile(args[0], caFile)
			if err != nil {
				return fmt.Errorf("failed to verify certificate: %w", err)
			}

			fmt.Print(cert.FormatVerifyResult(result))

			if !result.Valid {
				return fmt.Errorf("certificate is not valid")
			}
			if host != "" && !result.Covers(host) {
				return fmt.Errorf("certificate does not cover host %s", host)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&caFile, "ca", "", "CA certificate file (default: ~/.emgdconf/certs/ca.pem)")
	cmd.Flags().StringVar(&host, "host", "", "Also check that the certificate covers this host")

	return cmd
}
