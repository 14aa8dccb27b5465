package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/qp/internal/core/discovery"
	"github.com/colonyops/qp/internal/qp"
)

// requireRoot fails commands that need a .qp root when none was found.
func requireRoot(app *qp.App) error {
	if app.Plans == nil {
		return discovery.ErrNoRoot
	}
	return nil
}

// planArg returns the required PLAN positional argument.
func planArg(c *cli.Command) (string, error) {
	ref := c.Args().First()
	if ref == "" {
		return "", fmt.Errorf("missing PLAN argument (id, slug, or title)")
	}
	return ref, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// formatTime renders a stored timestamp for tables, or "-" when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
