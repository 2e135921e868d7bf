// Command bpsim runs branch predictors over branch traces.
//
// Usage:
//
//	bpsim run [flags] [trace]
//	bpsim compare [flags] [trace]
//	bpsim info [flags]
//	bpsim runs <results.sqlite3>
//
// Traces are text files with one "<pc> <outcome>" pair per line; .gz and
// .bz2 files are decompressed and "-" (the default) reads standard input.
//
// Example:
//
//	# The original predictor configurations
//	bzip2 -dc traces/fp_1.bz2 | bpsim run --bp gshare:13
//	bpsim run --bp tournament:9:10:10 traces/int_1.bz2
//	bpsim run --bp custom traces/mm_1.bz2
//
//	# Compare several predictors and keep the results
//	bpsim compare --bp gshare:13 --bp custom --record results traces/fp_1.bz2
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/tebeka/atexit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
