package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/bpsim/record"
)

// openRecorder opens the result database named by the --record flag or
// BPSIM_RECORD, appending to it when it already exists. It returns nil when
// recording is off. Pending results are flushed at exit.
func openRecorder(cmd *cobra.Command, path string) (*record.Recorder, error) {
	path = envDefault(cmd, "record", envRecord, path)
	if path == "" {
		return nil, nil
	}

	recorder, err := record.Open(path)
	if err != nil {
		return nil, err
	}

	slog.Info("recording results", "file", recorder.Filename())

	atexit.Register(func() {
		if err := recorder.Close(); err != nil {
			slog.Error("failed to save results", "file", recorder.Filename(), "error", err)
		}
	})

	return recorder, nil
}
