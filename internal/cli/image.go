package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/registry"
)

func (c *CLI) imageCommand() *cobra.Command {
	var (
		ext       string
		mustExist bool
	)

	cmd := &cobra.Command{
		Use:   "image <store> <key>",
		Short: "Resolve the image path for a store key",
		Long: `Print the path of the image for key in store, following
<root>/images/<store>/<key>.<ext>.

The path is printed even when no file exists there unless --must-exist is
set. An extension in the key itself (portrait.jpg) wins over --ext.`,
		Example: `  kvtools image characters.json alice
  kvtools image characters portrait.jpg --must-exist`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.registryConfig()
			if err != nil {
				return err
			}
			path, err := registry.NewResolver(cfg).ResolveImage(cmd.Context(), args[0], args[1], ext)
			switch {
			case err == nil:
			case kverrors.IsNotFound(err) && !mustExist:
				loggerFromContext(cmd.Context()).Debug("image does not exist yet", "path", path)
			default:
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVar(&ext, "ext", registry.DefaultImageExt, "image extension when the key has none (png, jpg, jpeg, webp)")
	cmd.Flags().BoolVar(&mustExist, "must-exist", false, "fail when the image file does not exist")
	return cmd
}
