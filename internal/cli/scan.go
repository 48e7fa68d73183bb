package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kvtools/pkg/registry"
)

func (c *CLI) scanCommand() *cobra.Command {
	var (
		dryRun    bool
		printJSON bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Rebuild and publish the registry index",
		Long: `Scan the store root for *.json files holding a JSON object, and publish
the index of their keys for the frontend dropdowns.

Files that cannot be read or are not objects are skipped and listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.registryConfig()
			if err != nil {
				return err
			}
			prog := newProgress(logger)
			scanner := registry.NewScanner(cfg)

			spin := newSpinner(ctx, cmd.ErrOrStderr(), "Scanning "+cfg.RootDir)
			spin.Start()
			defer spin.Stop()

			var (
				res     *registry.ScanResult
				written string
			)
			if dryRun {
				res, err = scanner.Scan(ctx)
			} else {
				pub, closePub, perr := c.publisher(ctx, cfg)
				if perr != nil {
					return perr
				}
				defer closePub()
				res, written, err = registry.Refresh(ctx, scanner, pub)
			}
			spin.Stop()
			if err != nil {
				return err
			}
			prog.done("Scan complete")

			printSuccess("Indexed %s", StyleNumber.Render(plural(len(res.Index.Files), "store")))
			for _, e := range res.Index.Files {
				printDetail("%s (%s)", e.Name, plural(len(e.Keys), "key"))
			}
			for _, sk := range res.Skipped {
				printWarning("Skipped %s: %s", sk.Name, sk.Reason)
			}
			if written != "" {
				printFile(written)
			}
			if printJSON {
				return printIndex(cmd, cfg, res.Index, dryRun)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "scan without publishing the index")
	cmd.Flags().BoolVar(&printJSON, "print", false, "print the index JSON to stdout")
	return cmd
}

// printIndex writes the published artifact as read back from disk, or the
// in-memory scan when nothing was published.
func printIndex(cmd *cobra.Command, cfg registry.Config, scanned *registry.Index, dryRun bool) error {
	ix := scanned
	if !dryRun {
		loaded, err := registry.NewFileIndexStore(cfg.IndexPath).Load(cmd.Context())
		if err != nil {
			return err
		}
		ix = loaded
	}
	data, err := registry.EncodeIndex(ix)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
