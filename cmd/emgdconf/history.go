package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/pkg/db"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded generations",
		Long:  "List and print configurations stored with generate --record",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	var (
		profile string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded generations",
		RunE: func(_ *cobra.Command, _ []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			generations, err := database.ListGenerations(db.GenerationFilter{
				Profile: profile,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			if len(generations) == 0 {
				fmt.Println("No generations recorded")
				return nil
			}

			fmt.Printf("%-6s %-20s %-16s %-16s %-10s %s\n", "ID", "CREATED", "PROFILE", "CONFIG", "MODE", "SKIPPED")
			for _, g := range generations {
				profileName := g.Profile
				if profileName == "" {
					profileName = "-"
				}
				fmt.Printf("%-6d %-20s %-16s %-16s %-10s %d\n",
					g.ID, g.CreatedAt.Format("2006-01-02 15:04:05"), profileName, g.ConfigName, g.Mode, g.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Only show generations of this profile")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of generations to show")

	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a recorded configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid generation ID: %s", args[0])
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			g, err := database.GetGeneration(id)
			if err != nil {
				return err
			}

			fmt.Print(g.Output)
			return nil
		},
	}
}
