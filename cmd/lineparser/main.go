// Command lineparser runs stored line-table parsers over extracted text.
//
// Usage:
//
//	lineparser -parser Invoice [-format json|xml|xlsx|preview] [-out DIR] input.txt...
//	lineparser -list
//	lineparser -history Invoice
//	lineparser -import parser.json [-import-router router.json]
//	lineparser -validate [-parser Invoice]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"lineparser/internal/config"
	"lineparser/internal/metrics"
	"lineparser/internal/metrics/datadog"
	"lineparser/internal/metrics/prompush"
	"lineparser/internal/pipeline"
	"lineparser/internal/router"
	"lineparser/internal/store"

	// register every backend with the store factory; the config picks one.
	_ "lineparser/internal/store/all"
)

var errUsage = errors.New("usage")

func main() {
	switch err := run(); {
	case errors.Is(err, errUsage):
		flag.Usage()
		os.Exit(2)
	case err != nil:
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath      string
		parserName   string
		version      string
		formatName   string
		outPath      string
		workers      int
		validate     bool
		list         bool
		history      string
		importPath   string
		importRouter string
		noRoute      bool
		dryRoute     bool
		metricsFlg   string
	)

	flag.StringVar(&cfgPath, "config", "", "application config JSON path (defaults are used when empty)")
	flag.StringVar(&parserName, "parser", "", "name of the stored parser to run")
	flag.StringVar(&version, "version", "", "run a historic parser version instead of the current one")
	flag.StringVar(&formatName, "format", "json", "output format: json, xml, xlsx or preview")
	flag.StringVar(&outPath, "out", "", "output file (one input) or directory; stdout when empty")
	flag.IntVar(&workers, "workers", 0, "inputs processed in parallel (overrides runtime.workers)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration (and -parser with its router) and exit")
	flag.BoolVar(&list, "list", false, "list stored parsers and exit")
	flag.StringVar(&history, "history", "", "list stored versions of a parser and exit")
	flag.StringVar(&importPath, "import", "", "import a parser document and exit")
	flag.StringVar(&importRouter, "import-router", "", "import a router document for the -import or -parser owner and exit")
	flag.BoolVar(&noRoute, "no-route", false, "ignore the parser's router")
	flag.BoolVar(&dryRoute, "dry-route", false, "print the routing decision for each input without running the target")
	flag.StringVar(&metricsFlg, "metrics-backend", "", "metrics backend: none, pushgateway or datadog (overrides config)")
	verbose := flag.Bool("v", false, "enable verbose logs")
	flag.Parse()

	app, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if metricsFlg != "" {
		app.Metrics.Backend = metricsFlg
	}
	if workers > 0 {
		app.Runtime.Workers = workers
	}

	if !report("config", config.ValidateApp(app), app.Runtime.FailOnWarn) {
		return fmt.Errorf("configuration is invalid: %v", cfgPath)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, app.StoreConfig())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	switch {
	case list:
		return runList(ctx, st)
	case history != "":
		return runHistory(ctx, st, history)
	case importPath != "" || importRouter != "":
		return runImport(ctx, st, importPath, importRouter, parserName)
	case validate:
		return runValidate(ctx, st, app, cfgPath, parserName)
	case parserName == "" || flag.NArg() == 0:
		return errUsage
	}

	flush := initMetrics(app.Metrics, *verbose)
	defer flush()

	start := time.Now()
	err = runBatch(ctx, batch{
		store:   st,
		app:     app,
		parser:  parserName,
		version: version,
		format:  formatName,
		out:     outPath,
		inputs:  flag.Args(),
		noRoute: noRoute,
		dry:     dryRoute,
		verbose: *verbose,
	})
	if *verbose {
		log.Printf("completed %d input(s) in %s", flag.NArg(), time.Since(start).Truncate(time.Millisecond))
	}
	return err
}

// initMetrics installs the configured backend and returns its flush func.
func initMetrics(m config.Metrics, verbose bool) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch strings.ToLower(m.Backend) {
	case "pushgateway":
		b, err = prompush.NewBackend(m.Job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, Namespace: m.Namespace, GlobalTags: m.Tags})
	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", m.Backend)
		}
		return func() {}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", m.Backend)
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", m.Backend, err)
		return func() {}
	}
	log.Printf("metrics: backend=%v job=%v", m.Backend, m.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// report prints issues to stderr and reports whether they allow a run.
func report(what string, issues []config.Issue, strict bool) bool {
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s: %s\n", what, iss.Severity, iss.Path, iss.Message)
	}
	return !config.HasErrors(issues, strict)
}

func runList(ctx context.Context, st *store.Store) error {
	names, err := st.List(ctx)
	if err != nil {
		return err
	}
	routed, err := st.Routers(ctx)
	if err != nil {
		return err
	}
	has := map[string]bool{}
	for _, r := range routed {
		has[strings.ToLower(r)] = true
	}
	for _, n := range names {
		mark := ""
		if has[strings.ToLower(n)] {
			mark = " [router]"
		}
		fmt.Printf("%s%s\n", n, mark)
	}
	return nil
}

func runHistory(ctx context.Context, st *store.Store, name string) error {
	h, err := st.Versions(ctx, name)
	if err != nil {
		return err
	}
	for _, e := range h {
		fmt.Printf("%s  %s  %016x\n", e.Version, e.At.Format(time.RFC3339), e.Hash)
	}
	return nil
}

func runImport(ctx context.Context, st *store.Store, parserPath, routerPath, owner string) error {
	if parserPath != "" {
		var p pipeline.Parser
		if err := decodeFile(parserPath, &p); err != nil {
			return err
		}
		if !report(parserPath, config.ValidateParser(&p), false) {
			return fmt.Errorf("import: %s is invalid", parserPath)
		}
		e, err := st.SaveParser(ctx, &p)
		if err != nil {
			return err
		}
		log.Printf("imported parser=%s version=%s", p.Name, e.Version)
		owner = p.Name
	}
	if routerPath == "" {
		return nil
	}
	if owner == "" {
		return errors.New("import: -import-router needs -import or -parser to name the owner")
	}
	var r router.Router
	if err := decodeFile(routerPath, &r); err != nil {
		return err
	}
	p, err := st.LoadParser(ctx, owner)
	if err != nil {
		return err
	}
	if !report(routerPath, config.ValidateRouter(&r, p, nil), false) {
		return fmt.Errorf("import: %s is invalid", routerPath)
	}
	e, err := st.SaveRouter(ctx, p.Name, &r)
	if err != nil {
		return err
	}
	log.Printf("imported router owner=%s version=%s", p.Name, e.Version)
	return nil
}

func runValidate(ctx context.Context, st *store.Store, app config.App, cfgPath, name string) error {
	if name == "" {
		log.Printf("Configuration is valid: %v", cfgPath)
		return nil
	}
	p, err := st.LoadParser(ctx, name)
	if err != nil {
		return err
	}
	ok := report(p.Name, config.ValidateParser(p), app.Runtime.FailOnWarn)

	r, err := st.LoadRouter(ctx, p.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	default:
		targets := map[string]*pipeline.Parser{}
		names := append([]string(nil), r.DefaultTargetParser)
		for _, rt := range r.Routes {
			names = append(names, rt.TargetParser)
		}
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				continue
			}
			if tp, err := st.LoadParser(ctx, n); err == nil {
				targets[tp.Name] = tp
			}
		}
		ok = report(p.Name+" router", config.ValidateRouter(r, p, targets), app.Runtime.FailOnWarn) && ok
	}
	if !ok {
		return fmt.Errorf("parser %q is invalid", p.Name)
	}
	log.Printf("Parser is valid: %v", p.Name)
	return nil
}

func decodeFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
