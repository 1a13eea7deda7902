package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/pkg/db"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved form profiles",
		Long:  "Save, show, list, delete and export named form states",
	}

	cmd.AddCommand(profileSaveCmd())
	cmd.AddCommand(profileShowCmd())
	cmd.AddCommand(profileListCmd())
	cmd.AddCommand(profileDeleteCmd())
	cmd.AddCommand(profileExportCmd())

	return cmd
}

func profileSaveCmd() *cobra.Command {
	var (
		formPath    string
		base        string
		overrides   map[string]string
		description string
	)

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save a form as a named profile",
		Long: `Save a form as a named profile, replacing any profile of the same name.

Examples:
  # Save a TOML form
  emgdconf profile save kiosk --form kiosk.toml

  # Copy a profile with one change
  emgdconf profile save kiosk-hd --from kiosk --set lvds_dtd_1_preset=1280x720@60`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			values, err := loadForm(base, formPath, overrides)
			if err != nil {
				return err
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			p := &db.Profile{
				Name:        args[0],
				Description: description,
				Form:        db.Record(values),
			}
			if err := database.SaveProfile(p); err != nil {
				return err
			}

			fmt.Printf("Saved profile %s (%d fields)\n", p.Name, len(p.Form))
			return nil
		},
	}

	cmd.Flags().StringVarP(&formPath, "form", "f", "", "TOML form file")
	cmd.Flags().StringVar(&base, "from", "", "Existing profile to start from")
	cmd.Flags().StringToStringVar(&overrides, "set", map[string]string{}, "Form field overrides (key=value)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Profile description")

	return cmd
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the fields of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			p, err := database.GetProfile(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Profile: %s\n", p.Name)
			if p.Description != "" {
				fmt.Printf("Description: %s\n", p.Description)
			}
			fmt.Printf("Updated: %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("\nFields:\n")

			values := p.Form.Values()
			for _, f := range values.Keys() {
				fmt.Printf("  %-32s %s\n", f, values[f])
			}
			return nil
		},
	}
}

func profileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			profiles, err := database.ListProfiles()
			if err != nil {
				return err
			}

			if len(profiles) == 0 {
				fmt.Println("No profiles saved")
				return nil
			}

			fmt.Printf("%-20s %-8s %-20s %s\n", "NAME", "FIELDS", "UPDATED", "DESCRIPTION")
			for _, p := range profiles {
				fmt.Printf("%-20s %-8d %-20s %s\n",
					p.Name, len(p.Form), p.UpdatedAt.Format("2006-01-02 15:04:05"), p.Description)
			}
			return nil
		},
	}
}

func profileDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := database.DeleteProfile(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted profile %s\n", args[0])
			return nil
		},
	}
}

func profileExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [NAME]",
		Short: "Export profiles as JSON or CSV",
		Long: `Export one profile, or every profile when no name is given.

Examples:
  # Export one profile to stdout
  emgdconf profile export kiosk

  # Export all profiles to a CSV file
  emgdconf profile export --format csv --out profiles.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			exportFormat := db.ExportFormat(format)
			if exportFormat != db.ExportFormatJSON && exportFormat != db.ExportFormatCSV {
				return fmt.Errorf("unsupported export format: %s", format)
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			out, closeOut, err := openOutput(output)
			if err != nil {
				return err
			}
			defer closeOut()

			if len(args) == 1 {
				err = database.ExportProfile(out, args[0], exportFormat)
			} else {
				err = database.ExportAll(out, exportFormat)
			}
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}

			if output != "" {
				fmt.Printf("Exported to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format: json or csv")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default: stdout)")

	return cmd
}
