// sheetrun executes a flowsheet declaration script against a simulation
// backend and prints the run report as JSON. With -check it only builds
// the flowsheet and prints the resolved execution order.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	app "github.com/procflow/engine"
	"github.com/procflow/engine/internal/export"
	"github.com/procflow/engine/internal/script"
	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/engine"
	"github.com/procflow/engine/pkg/flowsheet"
	"github.com/procflow/engine/pkg/log"
)

type options struct {
	lang         string
	bridgeURL    string
	timeout      time.Duration
	check        bool
	exportBucket string
	exportPrefix string
	csvPaths     string
}

func main() {
	opts := &options{}
	flag.StringVar(&opts.lang, "lang", "",
		"script language (lua or ale, inferred from extension)")
	flag.StringVar(&opts.bridgeURL, "bridge", "http://localhost:9280",
		"simulation backend URL")
	flag.DurationVar(&opts.timeout, "timeout", 2*time.Minute,
		"backend request timeout")
	flag.BoolVar(&opts.check, "check", false,
		"build only; print the execution order without running")
	flag.StringVar(&opts.exportBucket, "export", "",
		"bucket URL to export the run report to (s3://, gs://, azblob://)")
	flag.StringVar(&opts.exportPrefix, "export-prefix", "",
		"object key prefix for exported reports")
	flag.StringVar(&opts.csvPaths, "csv", "",
		"comma-separated result paths; also export a CSV with these columns")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sheetrun [flags] <script-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	slog.SetDefault(log.New(app.Name, os.Getenv("ENV"), app.Version))

	if err := run(opts, flag.Arg(0)); err != nil {
		slog.Error("Run failed", log.Error(err))
		os.Exit(1)
	}
}

func run(opts *options, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lang := opts.lang
	if lang == "" {
		lang = langFromExtension(path)
	}
	env, err := script.NewRegistry().Get(lang)
	if err != nil {
		return err
	}

	var adapter engine.Adapter
	if !opts.check {
		adapter = engine.NewHTTPBridge(opts.bridgeURL, opts.timeout)
	}

	b := flowsheet.NewBuilder(adapter)
	if err := env.Declare(string(source), b); err != nil {
		return err
	}

	if opts.check {
		c, err := b.Build()
		if err != nil {
			return err
		}
		defer c.Clear()
		for i, name := range c.Order() {
			fmt.Printf("%3d  %s\n", i+1, name)
		}
		return nil
	}

	report, runErr := b.Run(context.Background())
	if report != nil {
		if err := printReport(report); err != nil {
			return err
		}
		if err := exportReport(opts, report); err != nil {
			return err
		}
	}
	return runErr
}

func langFromExtension(path string) string {
	switch filepath.Ext(path) {
	case ".ale":
		return script.LangAle
	default:
		return script.LangLua
	}
}

func printReport(report *api.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Println(string(data))
	return err
}

func exportReport(opts *options, report *api.RunReport) error {
	if opts.exportBucket == "" {
		return nil
	}

	ctx := context.Background()
	e, err := export.New(ctx, opts.exportBucket, opts.exportPrefix)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	key, err := e.JSON(ctx, report)
	if err != nil {
		return err
	}
	slog.Info("Report exported",
		log.RunID(report.RunID),
		slog.String("key", key))

	if opts.csvPaths == "" {
		return nil
	}
	paths := strings.Split(opts.csvPaths, ",")
	for i, p := range paths {
		paths[i] = strings.TrimSpace(p)
	}
	key, err = e.CSV(ctx, report, paths)
	if err != nil {
		return err
	}
	slog.Info("CSV exported",
		log.RunID(report.RunID),
		slog.String("key", key))
	return nil
}
