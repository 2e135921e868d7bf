// Package harness compares several predictor configurations over the same
// branch trace.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/sim"
	"github.com/sarchlab/bpsim/trace"
)

// Result holds the outcome of one predictor over the trace.
type Result struct {
	// Name identifies the predictor in reports.
	Name string `json:"name"`

	// Predictor is the compact configuration, e.g. "gshare:13".
	Predictor string `json:"predictor"`

	// Strategy is the prediction scheme name.
	Strategy string `json:"strategy"`

	// SizeBits is the storage the predictor needs.
	SizeBits int `json:"size_bits"`

	Branches          uint64  `json:"branches"`
	Mispredictions    uint64  `json:"mispredictions"`
	MispredictionRate float64 `json:"misprediction_rate"`

	// WallTime is the time taken to simulate the trace.
	WallTime time.Duration `json:"wall_time_ns"`

	// Config is the full predictor configuration.
	Config predictor.Config `json:"-"`
}

// Config configures the harness.
type Config struct {
	// Output is where reports are written (default: os.Stdout).
	Output io.Writer

	// Parallelism bounds how many predictors run at once
	// (default: runtime.NumCPU()).
	Parallelism int

	// Logger receives per-run log lines (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() Config {
	return Config{
		Output:      os.Stdout,
		Parallelism: runtime.NumCPU(),
		Logger:      slog.Default(),
	}
}

type entry struct {
	name   string
	config predictor.Config
}

// Harness runs predictors over a trace and reports results.
type Harness struct {
	config  Config
	entries []entry
}

// NewHarness creates a new harness.
func NewHarness(config Config) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Parallelism <= 0 {
		config.Parallelism = runtime.NumCPU()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Harness{config: config}
}

// AddPredictor adds a predictor configuration under the given name.
func (h *Harness) AddPredictor(name string, config predictor.Config) {
	h.entries = append(h.entries, entry{name: name, config: config})
}

// AddSpecs parses compact predictor specs and adds each one, named after
// the spec itself.
func (h *Harness) AddSpecs(specs ...string) error {
	for _, spec := range specs {
		config, err := predictor.ParseSpec(spec)
		if err != nil {
			return err
		}

		h.AddPredictor(config.String(), config)
	}

	return nil
}

// RunAll simulates every predictor over branches. Each predictor gets its own
// instance; the trace slice is shared read-only. Results keep the order in
// which predictors were added.
func (h *Harness) RunAll(ctx context.Context, branches []trace.Branch) ([]Result, error) {
	results := make([]Result, len(h.entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Parallelism)

	for i, e := range h.entries {
		g.Go(func() error {
			result, err := h.run(ctx, e, branches)
			if err != nil {
				return fmt.Errorf("predictor %s: %w", e.name, err)
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (h *Harness) run(ctx context.Context, e entry, branches []trace.Branch) (Result, error) {
	p, err := predictor.New(e.config)
	if err != nil {
		return Result{}, err
	}

	runner := sim.NewRunner(p)

	start := time.Now()
	stats, err := runner.Run(ctx, sim.NewSliceSource(branches))
	wallTime := time.Since(start)
	if err != nil {
		return Result{}, err
	}

	h.config.Logger.Debug("predictor finished",
		"name", e.name,
		"branches", stats.Branches,
		"mispredictions", stats.Mispredictions,
		"wall_time", wallTime)

	return Result{
		Name:              e.name,
		Predictor:         e.config.String(),
		Strategy:          e.config.Strategy.String(),
		SizeBits:          p.SizeBits(),
		Branches:          stats.Branches,
		Mispredictions:    stats.Mispredictions,
		MispredictionRate: stats.MispredictionRate(),
		WallTime:          wallTime,
		Config:            e.config,
	}, nil
}

// PrintResults outputs results as an aligned table.
func (h *Harness) PrintResults(results []Result) {
	headers := []string{"Predictor", "Strategy", "Size (bits)", "Branches", "Incorrect", "Mispred %"}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Name,
			r.Strategy,
			fmt.Sprintf("%d", r.SizeBits),
			fmt.Sprintf("%d", r.Branches),
			fmt.Sprintf("%d", r.Mispredictions),
			fmt.Sprintf("%.3f", r.MispredictionRate),
		})
	}

	widths := make([]int, len(headers))
	for i, head := range headers {
		widths[i] = runewidth.StringWidth(head)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	out := h.config.Output
	_, _ = fmt.Fprintln(out, formatRow(headers, widths))

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	_, _ = fmt.Fprintln(out, formatRow(rule, widths))

	for _, row := range rows {
		_, _ = fmt.Fprintln(out, formatRow(row, widths))
	}
}

// formatRow left-aligns the first two columns and right-aligns the numbers.
func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if i < 2 {
			padded[i] = runewidth.FillRight(cell, widths[i])
		} else {
			padded[i] = runewidth.FillLeft(cell, widths[i])
		}
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,predictor,strategy,size_bits,branches,mispredictions,misprediction_rate,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%s,%d,%d,%d,%.3f,%d\n",
			r.Name,
			r.Predictor,
			r.Strategy,
			r.SizeBits,
			r.Branches,
			r.Mispredictions,
			r.MispredictionRate,
			r.WallTime.Nanoseconds(),
		)
	}
}

// Report is the JSON document written by PrintJSON.
type Report struct {
	Timestamp string   `json:"timestamp"`
	Trace     string   `json:"trace"`
	Results   []Result `json:"results"`
	Best      string   `json:"best,omitempty"`
}

// PrintJSON outputs results in JSON format for automated comparison.
func (h *Harness) PrintJSON(traceName string, results []Result) error {
	report := Report{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Trace:     traceName,
		Results:   results,
	}

	if best, ok := Best(results); ok {
		report.Best = best.Name
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// Best returns the result with the lowest misprediction count. Ties go to the
// smaller predictor, then to the one added first.
func Best(results []Result) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Mispredictions < best.Mispredictions ||
			(r.Mispredictions == best.Mispredictions && r.SizeBits < best.SizeBits) {
			best = r
		}
	}

	return best, true
}
