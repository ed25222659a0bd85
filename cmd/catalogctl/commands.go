package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	catalog "github.com/nlstn/go-catalog"
)

var errUsage = errors.New("invalid usage")

type command func(ctx context.Context, svc *catalog.Service, args []string, out io.Writer) error

var commands = map[string]command{
	"import":           importCmd,
	"import-csv":       importReaderCmd((*catalog.Service).ImportCSV),
	"import-xml":       importReaderCmd((*catalog.Service).ImportXML),
	"list":             listCmd,
	"get":              getCmd,
	"remove":           removeCmd,
	"replace-category": replaceCategoryCmd,
	"clear":            clearCmd,
	"refresh":          refreshCmd,
	"categories":       categoriesCmd,
	"manufacturers":    manufacturersCmd,
	"serve":            serveCmd,
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("catalogctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	configFile := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return 2
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		printUsage(stderr)
		return 2
	}

	cfg, err := catalog.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := cfg.NewLogger(stderr)

	svc, err := catalog.NewServiceFromConfig(cfg, catalog.WithLogger(logger))
	if err != nil {
		logger.Error("failed to open catalog", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("failed to close catalog", slog.String("error", err.Error()))
		}
	}()

	if err := cmd(ctx, svc, fs.Args()[1:], stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return 2
		}
		logger.Error("command failed",
			slog.String("command", name),
			slog.String("kind", catalog.ErrorKind(err)),
			slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func importCmd(ctx context.Context, svc *catalog.Service, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: at least one file is required", errUsage)
	}

	total := catalog.ImportResult{}
	for _, path := range args {
		res, err := svc.ImportFile(ctx, path)
		total.Saved += res.Saved
		total.Skipped += res.Skipped
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
	}
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	return writeJSON(out, total)
}

// importReaderCmd imports one file with an explicit format, whatever its
// extension. "-" reads standard input.
func importReaderCmd(importFn func(*catalog.Service, context.Context, io.Reader) (catalog.ImportResult, error)) command {
	return func(ctx context.Context, svc *catalog.Service, args []string, out io.Writer) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: expected one file", errUsage)
		}

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		res, err := importFn(svc, ctx, r)
		if err != nil {
			return err
		}
		if err := svc.RebuildNow(ctx); err != nil {
			return err
		}
		return writeJSON(out, res)
	}
}

func listCmd(ctx context.Context, svc *catalog.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := catalog.ListOptions{}
	fs.StringVar(&opts.Search, "search", "", "free-text search")
	fs.StringVar(&opts.Category, "category", "", "category link path, descendants included")
	fs.StringVar(&opts.Manufacturer, "manufacturer", "", "manufacturer link")
	fs.StringVar(&opts.Skip, "skip", "", "product id to leave out")
	fs.IntVar(&opts.Page, "page", 1, "1-based page number")
	fs.IntVar(&opts.Max, "max", 0, "page size")
	fs.BoolVar(&opts.Homepage, "homepage", false, "order top products first")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	opts.IDs = fs.Args()

	res, err := svc.List(ctx, opts)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

func getCmd(ctx context.Context, svc *catalog.Service, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := catalog.GetOptions{}
	fs.StringVar(&opts.ID, "id", "", "product id")
	fs.StringVar(&opts.Link, "link", "", "product link")
	fs.StringVar(&opts.Category, "category", "", "category link path")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if opts.ID == "" && opts.Link == "" {
		return fmt.Errorf("%w: -id or -link is required", errUsage)
	}

	p, err := svc.Get(ctx, opts)
	if err != nil {
		return err
	}
	return writeJSON(out, p)
}

func removeCmd(ctx context.Context, svc *catalog.Service, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected one product id", errUsage)
	}
	if err := svc.Remove(ctx, args[0]); err != nil {
		return err
	}
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	return writeJSON(out, map[string]string{"removed": args[0]})
}

func replaceCategoryCmd(ctx context.Context, svc *catalog.Service, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: expected OLD and NEW category paths", errUsage)
	}
	n, err := svc.ReplaceCategory(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	return writeJSON(out, map[string]int64{"moved": n})
}

func clearCmd(ctx context.Context, svc *catalog.Service, _ []string, out io.Writer) error {
	n, err := svc.Clear(ctx)
	if err != nil {
		return err
	}
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	return writeJSON(out, map[string]int64{"deleted": n})
}

func refreshCmd(ctx context.Context, svc *catalog.Service, _ []string, out io.Writer) error {
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	return writeSummary(out, svc.Snapshot())
}

func writeSummary(out io.Writer, snap *catalog.Snapshot) error {
	return writeJSON(out, map[string]interface{}{
		"categories":    len(snap.Categories),
		"manufacturers": len(snap.Manufacturers),
		"built_at":      snap.BuiltAt,
		"etag":          snap.ETag,
	})
}

func categoriesCmd(ctx context.Context, svc *catalog.Service, _ []string, out io.Writer) error {
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	return writeJSON(out, svc.Categories())
}

func manufacturersCmd(ctx context.Context, svc *catalog.Service, _ []string, out io.Writer) error {
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	return writeJSON(out, svc.Manufacturers())
}

// serveCmd rebuilds the index once and then keeps the service open so the
// configured periodic refresh keeps running until ctx is cancelled.
func serveCmd(ctx context.Context, svc *catalog.Service, _ []string, out io.Writer) error {
	if err := svc.RebuildNow(ctx); err != nil {
		return err
	}
	if err := writeSummary(out, svc.Snapshot()); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
