// Package cli handles the one-shot command-line operations that run
// instead of the TUI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/nissyi-gh/bucket/internal/review"
	"github.com/nissyi-gh/bucket/internal/transfer"
)

// Args represents parsed command line arguments.
type Args struct {
	ConfigPath string

	// Task operations
	Add        string
	Due        bool
	Postpone   int
	Schedule   int
	Unschedule int
	Complete   int
	Remove     int

	// Import/Export operations
	ImportFile string
	ExportFile string
	Format     string
}

// ParseArgs parses argv (without the program name). The returned flag set
// also carries the config-override flags for config.Load.
func ParseArgs(argv []string) (*Args, *pflag.FlagSet, error) {
	args := &Args{}
	fs := pflag.NewFlagSet("bucket", pflag.ContinueOnError)

	fs.StringVar(&args.ConfigPath, "config", "", "Path to configuration file")

	// Config overrides, bound into viper by config.Load.
	fs.String("driver", "", "Database driver (sqlite, postgres)")
	fs.String("db", "", "Path to the SQLite database")
	fs.String("dsn", "", "PostgreSQL connection string")
	fs.String("log-level", "", "Log level (off, debug, info, warn, error)")
	fs.String("log-file", "", "Path to the log file")

	fs.StringVar(&args.Add, "add", "", "Add a new task")
	fs.BoolVar(&args.Due, "due", false, "Print the tasks due today")
	fs.IntVar(&args.Postpone, "postpone", 0, "Postpone the task with this ID")
	fs.IntVar(&args.Schedule, "schedule", 0, "Schedule the task with this ID")
	fs.IntVar(&args.Unschedule, "unschedule", 0, "Unschedule the task with this ID")
	fs.IntVar(&args.Complete, "complete", 0, "Complete the task with this ID")
	fs.IntVar(&args.Remove, "remove", 0, "Remove the task with this ID")

	fs.StringVar(&args.ImportFile, "import", "", "Import tasks from file")
	fs.StringVar(&args.ExportFile, "export", "", "Export tasks to file (- for stdout)")
	fs.StringVar(&args.Format, "format", "", "Export file type (json, yaml, text)")

	if err := fs.Parse(argv); err != nil {
		return nil, nil, err
	}
	return args, fs, nil
}

// Handle runs the command selected by args and reports whether one was
// selected. defaultFormat applies when --format is not given and the
// file extension says nothing.
func Handle(ctx context.Context, m *review.Manager, args *Args, defaultFormat string, out io.Writer) (bool, error) {
	if _, err := m.Refresh(ctx); err != nil {
		return false, err
	}

	switch {
	case args.Add != "":
		id, err := m.Add(ctx, args.Add)
		if err != nil {
			return true, fmt.Errorf("add task: %w", err)
		}
		fmt.Fprintf(out, "Added task %d\n", id)
		return true, nil
	case args.Postpone != 0:
		if err := m.Postpone(ctx, args.Postpone); err != nil {
			return true, fmt.Errorf("postpone task: %w", err)
		}
		t, err := m.Get(ctx, args.Postpone)
		if err != nil {
			return true, err
		}
		fmt.Fprintf(out, "Task %d is due %s\n", t.ID, t.ReviewAt.Format("2006-01-02"))
		return true, nil
	case args.Schedule != 0:
		return true, wrap("schedule task", m.Schedule(ctx, args.Schedule))
	case args.Unschedule != 0:
		return true, wrap("unschedule task", m.Unschedule(ctx, args.Unschedule))
	case args.Complete != 0:
		return true, wrap("complete task", m.Complete(ctx, args.Complete))
	case args.Remove != 0:
		return true, wrap("remove task", m.Remove(ctx, args.Remove))
	case args.ImportFile != "":
		return true, handleImport(ctx, m, args, out)
	case args.ExportFile != "":
		return true, handleExport(m, args, defaultFormat, out)
	case args.Due:
		for _, t := range m.Views().Due {
			fmt.Fprintf(out, "%d\t%s\t%s\n", t.ID, t.ReviewAt.Format("2006-01-02"), t.Title)
		}
		return true, nil
	}
	return false, nil
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func resolveFormat(flag, path, def string) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	base, err := transfer.ParseFormat(def)
	if err != nil {
		return "", err
	}
	return transfer.FormatFromPath(path, base), nil
}

func handleImport(ctx context.Context, m *review.Manager, args *Args, out io.Writer) error {
	content, err := os.ReadFile(args.ImportFile)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	f, err := resolveFormat(args.Format, args.ImportFile, string(transfer.JSON))
	if err != nil {
		return err
	}

	res, err := m.Import(ctx, content, f)
	if err != nil {
		return fmt.Errorf("import %s: %w", args.ImportFile, err)
	}
	for _, fail := range res.Failed {
		fmt.Fprintf(out, "Error adding task %q: %v\n", fail.Title, fail.Err)
	}
	fmt.Fprintf(out, "Successfully imported %d task(s) from %s\n", len(res.IDs), args.ImportFile)
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d task(s) could not be imported", len(res.Failed))
	}
	return nil
}

func handleExport(m *review.Manager, args *Args, defaultFormat string, out io.Writer) error {
	f, err := resolveFormat(args.Format, args.ExportFile, defaultFormat)
	if err != nil {
		return err
	}
	data, err := m.Export(f)
	if err != nil {
		return fmt.Errorf("export tasks: %w", err)
	}

	if args.ExportFile == "-" {
		_, err := out.Write(append(data, '\n'))
		return err
	}

	if err := os.MkdirAll(filepath.Dir(args.ExportFile), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(args.ExportFile, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	fmt.Fprintf(out, "Successfully exported %d task(s) to %s\n", len(m.Views().All), args.ExportFile)
	return nil
}

// IsHelp reports whether err is pflag's response to -h/--help.
func IsHelp(err error) bool {
	return errors.Is(err, pflag.ErrHelp)
}
