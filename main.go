package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/qp/internal/commands"
	"github.com/colonyops/qp/internal/core/agent"
	"github.com/colonyops/qp/internal/core/config"
	"github.com/colonyops/qp/internal/core/discovery"
	"github.com/colonyops/qp/internal/core/logging"
	"github.com/colonyops/qp/internal/core/styles"
	"github.com/colonyops/qp/internal/qp"
	"github.com/colonyops/qp/internal/store/planfs"
	"github.com/colonyops/qp/pkg/executil"
	"github.com/colonyops/qp/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		qpApp     = &qp.App{Config: config.Default()}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "qp",
		Usage:     "Plan with an AI agent, then harden the plan through review steps",
		UsageText: "qp [global options] command [command options]",
		Description: `qp keeps markdown plans under a .qp directory and drives an AI agent CLI
to write and refine them.

Run 'qp init' to create a .qp directory, 'qp new' to draft a plan with the
agent, 'qp approve' when it is ready, and 'qp optimize' to run it through
the configured review steps. Every step stores a version in the plan history.

Run 'qp' with no arguments to list plans.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("QP_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("QP_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to the global config file",
				Sources:     cli.EnvVars("QP_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "root",
				Usage:       "path to the .qp directory (defaults to the nearest one above the working directory)",
				Sources:     cli.EnvVars("QP_ROOT"),
				Destination: &flags.Root,
			},
			&cli.StringFlag{
				Name:        "theme",
				Usage:       "color theme (" + strings.Join(styles.ThemeNames(), ", ") + ")",
				Sources:     cli.EnvVars("QP_THEME"),
				Value:       styles.DefaultTheme,
				Destination: &flags.Theme,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			palette, ok := styles.GetPalette(flags.Theme)
			if !ok {
				return ctx, fmt.Errorf("unknown theme %q (available: %s)", flags.Theme, strings.Join(styles.ThemeNames(), ", "))
			}
			styles.SetTheme(palette)

			cwd, err := os.Getwd()
			if err != nil {
				return ctx, fmt.Errorf("get working directory: %w", err)
			}

			// Commands that need a root report ErrNoRoot themselves; init and
			// doctor still run without one.
			root, err := discovery.Resolve(flags.Root, cwd)
			if err != nil && !errors.Is(err, discovery.ErrNoRoot) {
				return ctx, err
			}

			opts := config.LoadOptions{GlobalPath: flags.ConfigPath, Root: root}
			flags.ConfigFiles = opts.Files()

			cfg, err := config.Load(opts)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}

			if root == "" {
				log.Debug().Msg("no .qp root found")
				qpApp.Config = cfg
				return ctx, nil
			}

			var (
				store   = planfs.New(root, logging.Component("store"))
				invoker = agent.NewInvoker(
					&executil.RealExecutor{},
					executil.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr},
					logging.Component("agent"),
				)
			)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*qpApp = *qp.NewApp(root, store, invoker, cfg)

			log.Debug().Str("root", root).Strs("config", flags.ConfigFiles).Msg("qp ready")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	listCmd := commands.NewListCmd(flags, qpApp)

	app = commands.NewInitCmd(flags, qpApp).Register(app)
	app = commands.NewNewCmd(flags, qpApp).Register(app)
	app = listCmd.Register(app)
	app = commands.NewShowCmd(flags, qpApp).Register(app)
	app = commands.NewEditCmd(flags, qpApp).Register(app)
	app = commands.NewApproveCmd(flags, qpApp).Register(app)
	app = commands.NewOptimizeCmd(flags, qpApp).Register(app)
	app = commands.NewReviewCmd(flags, qpApp).Register(app)
	app = commands.NewHistoryCmd(flags, qpApp).Register(app)
	app = commands.NewStateCmd(flags, qpApp).Register(app)
	app = commands.NewStatusCmd(flags, qpApp).Register(app)
	app = commands.NewStatsCmd(flags, qpApp).Register(app)
	app = commands.NewDeleteCmd(flags, qpApp).Register(app)
	app = commands.NewConfigCmd(flags, qpApp).Register(app)
	app = commands.NewDoctorCmd(flags, qpApp).Register(app)

	// Register list flags on root command
	app.Flags = append(app.Flags, listCmd.Flags()...)

	// List plans when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'qp --help' for usage", c.Args().First())
		}
		return listCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		if msg := runErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		exitCode = 1
	}

	os.Exit(exitCode)
}
