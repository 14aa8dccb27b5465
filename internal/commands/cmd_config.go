package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
)

type ConfigCmd struct {
	flags *Flags
	app   *qp.App
}

// NewConfigCmd creates a new config command
func NewConfigCmd(flags *Flags, app *qp.App) *ConfigCmd {
	return &ConfigCmd{flags: flags, app: app}
}

// Register adds the config command to the application
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "config",
		Usage:     "Print the effective configuration",
		UsageText: "qp config",
		Description: `Prints the merged configuration as TOML. The global config is read first,
then <root>/config.toml overrides it.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ConfigCmd) run(_ context.Context, c *cli.Command) error {
	for _, f := range cmd.flags.ConfigFiles {
		if _, err := os.Stat(f); err == nil {
			fmt.Fprintf(os.Stderr, "%s %s\n", styles.TextMutedStyle.Render("# loaded"), f)
		}
	}
	for _, w := range cmd.app.Config.Warnings() {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", styles.TextWarningStyle.Render("# warning"), w.Item, w.Message)
	}

	return cmd.app.Config.Encode(c.Root().Writer)
}
