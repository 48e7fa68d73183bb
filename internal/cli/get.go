package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/kv"
)

func (c *CLI) getCommand() *cobra.Command {
	var (
		input   string
		format  string
		def     string
		asType  string
		listAll bool
	)

	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Look up a key in inline KV text",
		Long: `Parse KV text and print the value of key cast to --type.

Text is read from --input (a file, or - for stdin). The format is detected
automatically: text wrapped in {} or [] is JSON, anything else is
key=value / key: value lines. When the value cannot be cast, --default is
cast instead.`,
		Example: `  printf 'speaker=Tom\nsteps=30\n' | kvtools get steps --type int
  kvtools get --input settings.yaml --format yaml --keys`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			f, err := kv.ParseFormat(format)
			if err != nil {
				return err
			}
			store, err := kv.Parse(text, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if listAll || len(args) == 0 {
				_, err = fmt.Fprintln(out, strings.Join(store.Keys(), "\n"))
				return err
			}

			v, err := kv.Lookup(store, args[0], def, kv.ParseType(asType))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, v.String())
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "file to read, - for stdin")
	cmd.Flags().StringVarP(&format, "format", "f", string(kv.FormatAuto), "input format (auto, json, kv, toml, yaml)")
	cmd.Flags().StringVarP(&def, "default", "d", "", "value used when the key is missing or cannot be cast")
	cmd.Flags().StringVarP(&asType, "type", "t", string(kv.TypeString), "cast to string, int, float or bool")
	cmd.Flags().BoolVar(&listAll, "keys", false, "print the sorted keys instead of a value")
	return cmd
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", kverrors.Wrap(kverrors.ErrCodeInvalidInput, err, "read stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", kverrors.New(kverrors.ErrCodeFileNotFound, "input not found: %s", path)
		}
		return "", kverrors.Wrap(kverrors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return string(data), nil
}
