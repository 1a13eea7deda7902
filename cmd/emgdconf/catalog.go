package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/pkg/catalog"
)

func catalogCmd() *cobra.Command {
	var (
		tablesDir string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show the reference tables",
		Long:  "Show the driver controls, DTD presets and port attributes available to forms",
	}

	cmd.PersistentFlags().StringVar(&tablesDir, "tables", "", "Directory overriding the built-in reference tables")
	cmd.PersistentFlags().StringVar(&format, "output", "text", "Output format: text, json or yaml")

	load := func() (*catalog.Tables, error) {
		tables, err := catalog.LoadDir(tablesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load tables: %w", err)
		}
		return tables, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "List DTD presets",
		RunE: func(_ *cobra.Command, _ []string) error {
			tables, err := load()
			if err != nil {
				return err
			}
			if format != "text" {
				return encode(os.Stdout, format, tables.Presets)
			}

			fmt.Printf("%-16s %-10s %s\n", "NAME", "FORMAT", "DESCRIPTION")
			for _, p := range tables.Presets {
				fmt.Printf("%-16s %-10s %s\n", p.Name, p.Representation, p.Description)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "controls",
		Short: "List driver option controls",
		RunE: func(_ *cobra.Command, _ []string) error {
			tables, err := load()
			if err != nil {
				return err
			}
			if format != "text" {
				return encode(os.Stdout, format, tables.Controls)
			}

			fmt.Printf("%-8s %-18s %-16s %-8s %s\n", "SCOPE", "FIELD", "OPTION", "DEFAULT", "DESCRIPTION")
			for _, c := range tables.Controls {
				fmt.Printf("%-8s %-18s %-16s %-8s %s\n", c.Scope, c.Field, c.Option, c.Default, c.Description)
			}
			return nil
		},
	})

	var port string
	attrs := &cobra.Command{
		Use:   "attributes",
		Short: "List port attributes",
		RunE: func(_ *cobra.Command, _ []string) error {
			tables, err := load()
			if err != nil {
				return err
			}
			list := tables.Attributes
			if port != "" {
				list = tables.AttributesFor(port)
			}
			if format != "text" {
				return encode(os.Stdout, format, list)
			}

			fmt.Printf("%-6s %-4s %-16s %-8s %-12s %s\n", "PORT", "ID", "NAME", "DEFAULT", "RANGE", "DESCRIPTION")
			for _, a := range list {
				fmt.Printf("%-6s %-4d %-16s %-8s %-12s %s\n",
					a.Port, a.ID, a.Name, a.Default, fmt.Sprintf("%d-%d", a.Min, a.Max), a.Description)
			}
			return nil
		},
	}
	attrs.Flags().StringVar(&port, "port", "", "Only show attributes that apply to this port")
	cmd.AddCommand(attrs)

	return cmd
}
