package main

import (
	"context"
	"fmt"

	"gator-social/internal/engine"
	"gator-social/internal/events"
	"gator-social/internal/scenario"
	"gator-social/internal/storage"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type replayResult struct {
	File   string `json:"file"`
	Name   string `json:"name"`
	Steps  int    `json:"steps"`
	Checks int    `json:"checks"`
	Events int    `json:"events"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

func newReplayCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <scenario.yaml>...",
		Short: "Run scenario files against a fresh engine and verify their checks",
		Long: `Replay runs every step of each scenario file through the engine and then
evaluates the file's checks. The storage backend comes from STORE_BACKEND;
with the default memory backend every file starts from an empty store.

Examples:
  socialctl replay internal/scenario/testdata/reactions.yaml
  socialctl replay --format json testdata/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var results []replayResult
			failed := 0
			for _, path := range args {
				res := replayFile(ctx, path, func(ctx context.Context) (storage.Backend, error) {
					return storage.Open(ctx, cfg.Store.Backend, cfg.Store.DSN, cfg.Store.Namespace, logger)
				}, cfg.Chain.Params(), logger)
				if !res.Passed {
					failed++
				}
				results = append(results, res)
			}

			if err := printResults(cmd, opts.Format, results); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
			}
			return nil
		},
	}
}

func replayFile(ctx context.Context, path string, open func(context.Context) (storage.Backend, error), base engine.Params, logger *zap.Logger) replayResult {
	res := replayResult{File: path}
	sc, err := scenario.Load(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Name = sc.Name
	res.Steps = len(sc.Steps)
	res.Checks = len(sc.Checks)

	backend, err := open(ctx)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer backend.Close(ctx)

	recorder := &events.Recorder{}
	e := engine.New(backend, engine.Options{
		Params: sc.Params.Apply(base),
		Sink:   events.Fanout{recorder, events.LogSink{Logger: logger.Named("events")}},
		Logger: logger,
	})
	err = scenario.NewRunner(e).Run(ctx, sc)
	res.Events = len(recorder.Events())
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Passed = true
	return res
}

func printResults(cmd *cobra.Command, format string, results []replayResult) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		data, err := sonic.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s  %s (%s): %d steps, %d checks, %d events\n", status, r.Name, r.File, r.Steps, r.Checks, r.Events)
		if r.Error != "" {
			fmt.Fprintf(out, "      %s\n", r.Error)
		}
	}
	return nil
}
