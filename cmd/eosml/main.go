package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"eosphase/adapters/api"
	"eosphase/adapters/ledger"
	"eosphase/app"
	"eosphase/domain/core"
	"eosphase/internal"
	"eosphase/internal/config"
	"eosphase/internal/errors"
	"eosphase/internal/features"
	"eosphase/internal/model"
	"eosphase/internal/testkit"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
	logger := internal.NewLogger(cfg.LogLevel, "eosml")
	if envErr != nil {
		logger.Debug("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:           "eosml",
		Short:         "Train and apply QCD phase classifiers on solver EOS tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newTrainCmd(cfg, logger),
		newEvalCmd(logger),
		newPredictCmd(logger),
		newFiguresCmd(logger),
		newSynthCmd(cfg),
		newServeCmd(cfg, logger),
		newRunsCmd(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

func newTrainCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var (
		dataPath   string
		outDir     string
		kind       string
		seed       int64
		testFrac   float64
		fitStatsOn string
		withReport bool
		ledgerDSN  string
		cvFolds    int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier and write model.joblib and metrics.json",
		Long: `Load an EOS table, label phases, split stratified on temperature,
build features, fit the classifier and evaluate it on both splits.

Example: eosml train --data eos.dat --out runs/gbt --model gbt --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := model.ParseKind(kind)
			if err != nil {
				return err
			}
			mode, err := features.ParseFitMode(fitStatsOn)
			if err != nil {
				return err
			}
			req := app.TrainRequest{
				DataPath:     dataPath,
				OutDir:       outDir,
				Model:        cfg.Training.ModelConfig(k, seed),
				Seed:         seed,
				TestFraction: testFrac,
				FitStatsOn:   mode,
				Report:       withReport,
				CVFolds:      cvFolds,
			}
			return runTrain(cmd.Context(), logger, req, ledgerDSN)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "EOS table (whitespace text or .xlsx)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory")
	cmd.Flags().StringVar(&kind, "model", string(cfg.Training.Model.Kind), "Classifier: gbt|rf|logreg")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Training.Seed, "Random seed for the split and the tree ensembles")
	cmd.Flags().Float64Var(&testFrac, "test-frac", cfg.Training.TestFraction, "Share of rows held out for testing")
	cmd.Flags().StringVar(&fitStatsOn, "fit-stats-on", string(cfg.Training.FitStatsOn), "Standardization statistics: per_split|train_only")
	cmd.Flags().BoolVar(&withReport, "report", false, "Also write report.md, report.html and metrics.xlsx")
	cmd.Flags().StringVar(&ledgerDSN, "ledger", cfg.Ledger.DSN, "Run ledger DSN (sqlite path or postgres:// URL)")
	cmd.Flags().IntVar(&cvFolds, "cv", 0, "Stratified k-fold cross-validation on the train split (0 disables)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runTrain(ctx context.Context, logger *internal.Logger, req app.TrainRequest, ledgerDSN string) error {
	svc := app.NewPipelineService(logger)
	if ledgerDSN != "" {
		l, err := ledger.Open(ctx, ledgerDSN)
		if err != nil {
			return err
		}
		defer l.Close()
		svc = svc.WithLedger(l.WithLogger(logger.WithComponent("ledger")))
	}

	res, err := svc.Train(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Saved -> %s\n", res.ModelPath)
	fmt.Printf("Test accuracy: %.4f\n", res.Metrics.Test.Accuracy)
	if cv := res.Metrics.CV; cv != nil {
		fmt.Printf("CV accuracy: %.4f (+/- %.4f, %d folds)\n", cv.Mean, 2*cv.Std, cv.Folds)
	}
	return nil
}

func newEvalCmd(logger *internal.Logger) *cobra.Command {
	var dataPath, modelPath string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a saved model on a labeled EOS table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := app.NewPipelineService(logger).Evaluate(cmd.Context(), dataPath, modelPath)
			if err != nil {
				return err
			}
			return printJSON(metrics)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "EOS table")
	cmd.Flags().StringVar(&modelPath, "model", "", "Saved model")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newPredictCmd(logger *internal.Logger) *cobra.Command {
	var (
		modelPath string
		in        app.PredictInput
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Classify one state point",
		Long: `Classify one state point given the six base fields.

Example: eosml predict --model runs/gbt/model.joblib --yq 0.3 --T 120 --muB_H 400 --muB_Q 405 --muQ_H -9 --muQ_Q -9.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := app.NewPipelineService(logger).Predict(modelPath, in)
			if err != nil {
				return err
			}
			fmt.Printf("{\"phase_pred\": %d, \"0=hadron,1=quark\": true}\n", int(pred.Phase))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Saved model")
	cmd.Flags().Float64Var(&in.YQ, "yq", 0, "Charge fraction Y_Q")
	cmd.Flags().Float64Var(&in.T, "T", 0, "Temperature [MeV]")
	cmd.Flags().Float64Var(&in.MuBH, "muB_H", 0, "Hadronic baryon chemical potential [MeV]")
	cmd.Flags().Float64Var(&in.MuBQ, "muB_Q", 0, "Quark baryon chemical potential [MeV]")
	cmd.Flags().Float64Var(&in.MuQH, "muQ_H", 0, "Hadronic charge chemical potential [MeV]")
	cmd.Flags().Float64Var(&in.MuQQ, "muQ_Q", 0, "Quark charge chemical potential [MeV]")
	for _, name := range []string{"model", "yq", "T", "muB_H", "muB_Q", "muQ_H", "muQ_Q"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newFiguresCmd(logger *internal.Logger) *cobra.Command {
	var dataPath, outDir string

	cmd := &cobra.Command{
		Use:   "figures",
		Short: "Render muB-T projections and the phase map as PNG files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := app.NewPipelineService(logger).Figures(cmd.Context(), dataPath, outDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "EOS table")
	cmd.Flags().StringVar(&outDir, "out", "figures", "Output directory")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newSynthCmd(cfg *config.Config) *cobra.Command {
	var (
		outPath string
		rows    int
		seed    int64
		opts    = testkit.DefaultEOSOptions()
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic EOS table in the solver layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < 1 {
				return core.NewConfigError("rows", fmt.Sprintf("must be >= 1, got %d", rows))
			}
			if dir := filepath.Dir(outPath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := testkit.WriteEOSFile(outPath, rows, seed, opts); err != nil {
				return err
			}
			fmt.Printf("Wrote %s rows -> %s\n", humanize.Comma(int64(rows)), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "eos.dat", "Output table")
	cmd.Flags().IntVar(&rows, "rows", 2000, "Number of rows")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Training.Seed, "Random seed")
	cmd.Flags().Float64Var(opts.Boundary, "boundary", *opts.Boundary, "Temperature above which rows are quark phase")
	cmd.Flags().Float64Var(opts.Noise, "noise", *opts.Noise, "Std of the jitter between hadron and quark potentials")
	cmd.Flags().BoolVar(&opts.Header, "header", true, "Write a comment line naming the columns")
	return cmd
}

func newServeCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var modelPath, addr, ledgerDSN string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions from a saved model over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := app.NewPipelineService(logger).LoadModel(modelPath)
			if err != nil {
				return err
			}

			var srv *api.Server
			if ledgerDSN != "" {
				l, err := ledger.Open(ctx, ledgerDSN)
				if err != nil {
					return err
				}
				defer l.Close()
				srv = api.NewServer(app.NewPredictor(m), l, logger.WithComponent("api"))
			} else {
				srv = api.NewServer(app.NewPredictor(m), nil, logger.WithComponent("api"))
			}
			return srv.Start(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Saved model")
	cmd.Flags().StringVar(&addr, "addr", cfg.Server.Addr, "Listen address")
	cmd.Flags().StringVar(&ledgerDSN, "ledger", cfg.Ledger.DSN, "Run ledger DSN exposed under /runs")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newRunsCmd(cfg *config.Config) *cobra.Command {
	var (
		ledgerDSN string
		limit     int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ledgerDSN == "" {
				return core.NewConfigError("ledger", "no DSN given (use --ledger or EOS_LEDGER_DSN)")
			}
			l, err := ledger.Open(cmd.Context(), ledgerDSN)
			if err != nil {
				return err
			}
			defer l.Close()

			entries, err := l.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(entries)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tCREATED\tMODEL\tSEED\tTRAIN\tTEST\tACCURACY\tDATA")
			for _, e := range entries {
				m := e.Manifest
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%.4f\t%s\n",
					m.RunID, humanize.Time(m.CreatedAt), m.Fingerprint.ModelKind, m.Fingerprint.Seed,
					humanize.Comma(int64(m.TrainRows)), humanize.Comma(int64(m.EvalRows)),
					m.TestAccuracy, m.Fingerprint.DataHash.Short())
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&ledgerDSN, "ledger", cfg.Ledger.DSN, "Run ledger DSN")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
