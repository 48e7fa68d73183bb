package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kvtools/pkg/kv"
	"github.com/matzehuels/kvtools/pkg/registry"
)

func (c *CLI) peekCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "peek <file.json> [key]",
		Short: "Print a value from a store file",
		Long: `Print the value of key in a store file under the root.

Objects and arrays print as single-line JSON and a missing key prints an
empty line. Without a key the whole store is printed in --format.`,
		Example: `  kvtools peek characters.json alice
  kvtools peek characters.json --format yaml`,
		Args: cobra.RangeArgs(1, 2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			cfg, err := c.registryConfig()
			if err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
			names, _ := registry.NewReader(cfg).StoreNames()
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.registryConfig()
			if err != nil {
				return err
			}
			reader := registry.NewReader(cfg)
			out := cmd.OutOrStdout()

			if len(args) == 2 {
				value, err := reader.ReadValue(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, value)
				return err
			}

			f, err := kv.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == kv.FormatAuto {
				f = kv.FormatJSON
			}
			store, _, err := reader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			text, err := kv.Dump(store, f, true)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, text)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format for whole stores (json, kv, toml, yaml)")
	return cmd
}
