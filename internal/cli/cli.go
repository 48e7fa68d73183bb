// Package cli implements the kvtools command-line interface.
//
// The CLI indexes a key/value store registry, reads values and resolves
// images from it, and serves the registry over HTTP for the node-graph
// frontend. It is built using cobra, configured through viper and logs via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - serve: Run the HTTP server for the frontend
//   - scan: Rebuild and publish the registry index
//   - peek: Print one value from a store file
//   - image: Resolve the image path for a store key
//   - get: Parse inline KV text and look up a key
//   - nodes: List the graph nodes and their ports
//   - config: Show the effective configuration
//
// # Configuration
//
// Settings come from flags, KVTOOLS_* environment variables and an optional
// kvtools.toml or kvtools.yaml in the working directory, in that order of
// precedence.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/kvtools/pkg/buildinfo"
)

// appName is the application name used for config files and display.
const appName = "kvtools"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	v          *viper.Viper
	configFile string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		v:      viper.New(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "kvtools manages key/value stores for node-graph workflows",
		Long:         `kvtools indexes a directory of JSON key/value stores, reads values and images from it without ever leaving that directory, and serves it to the node-graph frontend.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	c.bindFlags(root)

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.peekCommand())
	root.AddCommand(c.imageCommand())
	root.AddCommand(c.getCommand())
	root.AddCommand(c.nodesCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
