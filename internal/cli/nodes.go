package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kvtools/pkg/nodes"
)

func (c *CLI) nodesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List the graph nodes and their ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.registryConfig()
			if err != nil {
				return err
			}
			manifest := nodes.Default(cfg).Manifest()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(manifest)
			}

			for _, d := range manifest {
				printInfo("%s %s", StyleTitle.Render(d.Name), StyleDim.Render(d.DisplayName))
				printDetail("in:  %s", portList(d.Inputs))
				printDetail("out: %s", portList(d.Outputs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the manifest as JSON")
	return cmd
}

func portList(ports []nodes.Port) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		s := fmt.Sprintf("%s:%s", p.Name, p.Type)
		if p.Optional {
			s += "?"
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
