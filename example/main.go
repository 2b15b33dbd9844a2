// Command example runs a buffer edit script and prints the buffer after each
// step.
package main

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/fpemud/dynbuf"
	"github.com/fpemud/dynbuf/lib/pool"
	"github.com/fpemud/dynbuf/lib/script"
)

//go:embed demo.yaml
var demoScript []byte

type options struct {
	script  string
	verbose bool
	budget  int
	pooled  bool
}

func main() {
	if err := newCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "example",
		Short:         "Apply a buffer edit script and show every intermediate state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(stderr, opts.verbose)
			if err := run(stdout, logger, opts); err != nil {
				logger.Error("script failed", "err", err)
				return err
			}
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	f := cmd.Flags()
	f.StringVarP(&opts.script, "script", "s", "", "YAML edit script (default: built-in demo)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every step with the buffer capacity")
	f.IntVar(&opts.budget, "budget", 0, "cap the bytes the buffer may allocate (0: unlimited)")
	f.BoolVar(&opts.pooled, "pool", false, "allocate from a size-class pool")
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

func run(stdout io.Writer, logger *slog.Logger, opts *options) error {
	data := demoScript
	if opts.script != "" {
		var err error
		data, err = os.ReadFile(opts.script)
		if err != nil {
			return err
		}
	}
	s, err := script.Parse(data)
	if err != nil {
		return err
	}

	var alloc pool.Allocator = pool.Heap
	if opts.pooled {
		alloc = pool.NewSizeClass()
	}
	var budget *pool.Budget
	if opts.budget > 0 {
		budget = pool.Limit(alloc, opts.budget)
		alloc = budget
	}

	b := dynbuf.New(dynbuf.WithAllocator(alloc))
	defer b.Free()

	fmt.Fprintln(stdout, script.Show(b))
	err = s.Run(b, func(i int, st script.Step, b *dynbuf.DynBuf) {
		logger.Debug("step", "n", i+1, "op", st.String(), "len", b.Len(), "cap", b.Cap())
		fmt.Fprintln(stdout, script.Show(b))
	})
	if budget != nil {
		logger.Debug("allocator", "in_use", budget.InUse(), "budget", opts.budget)
	}
	return err
}
