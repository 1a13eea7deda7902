package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mscrnt/emgd_confgen/pkg/dtd"
	"github.com/mscrnt/emgd_confgen/pkg/timing"
)

func timingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timing",
		Short: "Inspect and convert timing descriptors",
		Long:  "List the supported timing representations and convert between them",
	}

	cmd.AddCommand(timingListCmd())
	cmd.AddCommand(timingTranslateCmd())

	return cmd
}

func timingListCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List timing representations",
		RunE: func(_ *cobra.Command, _ []string) error {
			infos := timing.DefaultRegistry().Info()

			fmt.Printf("%-10s %-10s %s\n", "NAME", "REVERSE", "DESCRIPTION")
			fmt.Println(strings.Repeat("-", 72))
			for _, info := range infos {
				reverse := "no"
				if info.Reversible {
					reverse = "yes"
				}
				fmt.Printf("%-10s %-10s %s\n", info.Name, reverse, info.Description)
				if verbose {
					fields := make([]string, len(info.Fields))
					for i, f := range info.Fields {
						fields[i] = string(f)
					}
					fmt.Printf("%-21s fields: %s\n", "", strings.Join(fields, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the fields of each representation")

	return cmd
}

type translation struct {
	From      string         `json:"from" yaml:"from"`
	To        string         `json:"to" yaml:"to"`
	Params    timing.Params  `json:"params" yaml:"params"`
	Values    timing.Values  `json:"values" yaml:"values"`
	Flags     dtd.Flags      `json:"flags" yaml:"flags"`
	RefreshHz float64        `json:"refresh_hz,omitempty" yaml:"refresh_hz,omitempty"`
	Skipped   []timing.Field `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

func timingTranslateCmd() *cobra.Command {
	var (
		from   string
		to     string
		set    map[string]string
		format string
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Convert a timing between representations",
		Long: `Convert a timing descriptor from one representation to another.

Examples:
  # VESA blanking/sync start values to EMGD fields
  emgdconf timing translate --from vesa --to emgd \
    --set vesa_pclk=65000,vesa_hblank_start=1023,vesa_hsync_start=1047 \
    --set vesa_hsync_pulse=136,vesa_hblank=320

  # Modeline to an 18 byte EDID descriptor
  emgdconf timing translate --from modeline --to edid \
    --set modeline="65.0 1024 1048 1184 1344 768 771 777 806 -hsync -vsync"

  # CVT timing as a modeline, in YAML
  emgdconf timing translate --from simple --to modeline \
    --set cvt_width=1280,cvt_height=800,cvt_refresh=60 --output yaml`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if len(set) == 0 {
				return fmt.Errorf("no input fields: use --set field=value")
			}

			in := timing.Values{}
			for k, v := range set {
				in[timing.Field(k)] = v
			}

			var p timing.Params
			out, skipped, err := timing.DefaultRegistry().Translate(to, from, &p, in)
			if err != nil {
				return err
			}
			for _, f := range skipped {
				fmt.Fprintf(os.Stderr, "Warning: skipped malformed value for %s\n", f)
			}

			result := translation{
				From:      from,
				To:        to,
				Params:    p,
				Values:    out,
				Flags:     dtd.FromParams(true, p, false),
				RefreshHz: p.RefreshHz(),
				Skipped:   skipped,
			}

			if format != "text" {
				return encode(os.Stdout, format, result)
			}

			keys := make([]string, 0, len(out))
			for f := range out {
				keys = append(keys, string(f))
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-20s %s\n", k, out[timing.Field(k)])
			}
			fmt.Printf("%-20s %s\n", "dtd flags", result.Flags)
			if result.RefreshHz > 0 {
				fmt.Printf("%-20s %.2f Hz\n", "refresh", result.RefreshHz)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "emgd", "Source representation")
	cmd.Flags().StringVar(&to, "to", "emgd", "Target representation")
	cmd.Flags().StringToStringVar(&set, "set", map[string]string{}, "Source fields (field=value)")
	cmd.Flags().StringVar(&format, "output", "text", "Output format: text, json or yaml")

	return cmd
}
