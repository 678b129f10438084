package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lineparser/internal/config"
	"lineparser/internal/format"
	"lineparser/internal/pipeline"
	"lineparser/internal/router"
	"lineparser/internal/source"
	"lineparser/internal/step"
	"lineparser/internal/store"
)

// batch is one CLI run over a set of input files.
type batch struct {
	store   *store.Store
	app     config.App
	parser  string
	version string
	format  string
	out     string
	inputs  []string
	noRoute bool
	dry     bool
	verbose bool
}

// job is the resolved parser and router shared by every input.
type job struct {
	batch
	p     *pipeline.Parser
	r     *router.Router
	write format.Writer
}

func (b batch) prepare(ctx context.Context) (*job, error) {
	var (
		write format.Writer
		err   error
	)
	if !b.dry {
		if write, err = format.Lookup(b.format); err != nil {
			return nil, err
		}
	}
	var p *pipeline.Parser
	if b.version != "" {
		p, err = b.store.LoadVersion(ctx, b.parser, b.version)
	} else {
		p, err = b.store.LoadParser(ctx, b.parser)
	}
	if err != nil {
		return nil, err
	}
	j := &job{batch: b, p: p, write: write}
	if b.noRoute {
		return j, nil
	}
	r, err := b.store.LoadRouter(ctx, p.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		j.r = r
	}
	return j, nil
}

// runBatch processes every input, at most runtime.workers at a time, and
// writes results in input order.
func runBatch(ctx context.Context, b batch) error {
	j, err := b.prepare(ctx)
	if err != nil {
		return err
	}

	results := make([][]byte, len(b.inputs))
	g, gctx := errgroup.WithContext(ctx)
	if b.app.Runtime.Workers > 0 {
		g.SetLimit(b.app.Runtime.Workers)
	}
	for i, in := range b.inputs {
		g.Go(func() error {
			out, err := j.process(gctx, in)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return j.emit(results)
}

// logger writes every step message when verbose and only Warn-policy
// messages otherwise.
func (j *job) logger(input string) step.Logger {
	name := filepath.Base(input)
	return func(msg string) {
		if j.verbose || step.IsWarning(msg) {
			log.Printf("%s: %s", name, msg)
		}
	}
}

// process runs the parser (routed when a router is configured) over one
// input and renders the result.
func (j *job) process(ctx context.Context, input string) ([]byte, error) {
	snap, err := source.ReadFile(input, j.app.SourceOptions())
	if err != nil {
		return nil, err
	}
	lg := j.logger(input)
	lg.Printf("input lines=%d pages=%d fingerprint=%016x", snap.Len(), snap.PageCount(), snap.Fingerprint())

	if j.dry {
		return j.plan(input, snap, lg)
	}

	var res *router.Result
	if j.r == nil {
		out, err := pipeline.RunParser(j.p, snap, pipeline.RunOptions{Log: lg})
		if err != nil {
			return nil, err
		}
		res = &router.Result{Info: router.Info{Parser: j.p.Name}, Outputs: []*pipeline.Output{out}}
	} else {
		if res, err = router.Run(ctx, j.p, j.r, j.store, snap, lg); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := j.write(&buf, res, format.Options{RanAt: time.Now(), Indent: "  "}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// planReport is the dry-route output for one input.
type planReport struct {
	Input  string `json:"input"`
	Parser string `json:"parser"`
	Tag    string `json:"tag,omitempty"`
	Target string `json:"target,omitempty"`
	Route  string `json:"route,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (j *job) plan(input string, snap *source.Snapshot, lg step.Logger) ([]byte, error) {
	rep := planReport{Input: input, Parser: j.p.Name}
	if j.r == nil {
		rep.Error = "no router configured"
	} else {
		plan, err := router.DryRun(j.p, j.r, snap, lg)
		switch {
		case errors.Is(err, router.ErrNotRouted):
			rep.Tag, rep.Error = plan.Tag, err.Error()
		case err != nil:
			return nil, err
		default:
			rep.Tag, rep.Target = plan.Tag, plan.Decision.Target
			rep.Route = "default"
			if plan.Decision.Route >= 0 {
				rep.Route = j.r.Routes[plan.Decision.Route].String()
			}
		}
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// emit writes results to stdout, to the -out file for a single input, or
// into the -out directory as <input base><ext>.
func (j *job) emit(results [][]byte) error {
	if j.out == "" {
		for _, r := range results {
			if _, err := os.Stdout.Write(r); err != nil {
				return err
			}
		}
		return nil
	}
	for i, path := range outputPaths(j.out, j.inputs, j.extension()) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, results[i], 0o644); err != nil {
			return err
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func (j *job) extension() string {
	if j.dry {
		return ".route.json"
	}
	return format.Extension(j.format)
}

// outputPaths maps inputs to output files. out names a file only for a
// single input when it is not an existing directory and has no trailing
// separator.
func outputPaths(out string, inputs []string, ext string) []string {
	if len(inputs) == 1 && !strings.HasSuffix(out, string(os.PathSeparator)) && !strings.HasSuffix(out, "/") {
		if fi, err := os.Stat(out); err != nil || !fi.IsDir() {
			return []string{out}
		}
	}
	paths := make([]string, len(inputs))
	seen := map[string]int{}
	for i, in := range inputs {
		base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		seen[base]++
		if n := seen[base]; n > 1 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		paths[i] = filepath.Join(out, base+ext)
	}
	return paths
}
