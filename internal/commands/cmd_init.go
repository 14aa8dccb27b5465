package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	initcmd "github.com/colonyops/qp/internal/commands/init"
	"github.com/colonyops/qp/internal/core/discovery"
	"github.com/colonyops/qp/internal/qp"
)

type InitCmd struct {
	flags *Flags
	app   *qp.App

	noInteractive bool
	force         bool
}

// NewInitCmd creates a new init command
func NewInitCmd(flags *Flags, app *qp.App) *InitCmd {
	return &InitCmd{flags: flags, app: app}
}

// Register adds the init command to the application
func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Create a .qp directory with a starter config",
		UsageText: "qp init [options]",
		Description: `Creates .qp/plans and .qp/config.toml in the current directory, or at --root.

On a terminal a short wizard asks which agent CLI to use and which review
steps to enable. An existing config is kept unless --force is given, in which
case a .bak copy is written first.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "no-interactive",
				Usage:       "write the default config without prompting",
				Destination: &cmd.noInteractive,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "overwrite an existing config",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	root := cmd.flags.Root
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		root = filepath.Join(cwd, discovery.DirName)
	}

	wizard := initcmd.NewWizard(initcmd.WizardOptions{
		Root:        root,
		Interactive: !cmd.noInteractive && isTerminal(os.Stdin) && isTerminal(os.Stdout),
		Force:       cmd.force,
		Out:         c.Root().Writer,
	})

	return wizard.Run(ctx)
}
