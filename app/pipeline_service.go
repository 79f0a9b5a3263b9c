package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eosphase/adapters/eosfile"
	"eosphase/adapters/figures"
	"eosphase/adapters/modelstore"
	"eosphase/adapters/report"
	"eosphase/domain/core"
	"eosphase/domain/eos"
	"eosphase/domain/run"
	"eosphase/internal"
	"eosphase/internal/errors"
	"eosphase/internal/evaluation"
	"eosphase/internal/features"
	"eosphase/internal/model"
	"eosphase/internal/split"
	"eosphase/ports"

	"github.com/dustin/go-humanize"
)

// MetricsFileName is written next to the model artifact.
const MetricsFileName = "metrics.json"

// PipelineService runs the load, label, split, featurize, train, evaluate and
// persist stages behind the CLI and the prediction server.
type PipelineService struct {
	reader ports.TableReaderPort
	store  ports.ModelStorePort
	ledger ports.LedgerWriterPort
	logger *internal.Logger
}

// NewPipelineService wires the file-backed reader and model store. The ledger is optional.
func NewPipelineService(logger *internal.Logger) *PipelineService {
	return &PipelineService{
		reader: eosfile.NewTableReader(logger.WithComponent("eosfile")),
		store:  modelstore.NewStore().WithLogger(logger.WithComponent("modelstore")),
		logger: logger,
	}
}

// WithLedger records every successful training run in l.
func (s *PipelineService) WithLedger(l ports.LedgerWriterPort) *PipelineService {
	s.ledger = l
	return s
}

// TrainRequest defines the inputs of one training run
type TrainRequest struct {
	DataPath     string
	OutDir       string
	Model        model.Config
	Seed         int64
	TestFraction float64
	FitStatsOn   features.FitMode
	Report       bool
	// CVFolds > 0 adds stratified k-fold cross-validation on the train split.
	CVFolds int
}

// SplitMetrics is the content of metrics.json.
type SplitMetrics struct {
	Train evaluation.Metrics   `json:"train"`
	Test  evaluation.Metrics   `json:"test"`
	CV    *evaluation.CVResult `json:"cv,omitempty"`
}

// TrainResult contains the complete output of a training run
type TrainResult struct {
	ModelPath   string                    `json:"model_path"`
	MetricsPath string                    `json:"metrics_path"`
	ReportPaths []string                  `json:"report_paths,omitempty"`
	Metrics     SplitMetrics              `json:"metrics"`
	Split       split.SplitSummary        `json:"split"`
	Manifest    *run.RunManifest          `json:"manifest"`
	Importances []model.FeatureImportance `json:"importances"`
	RuntimeMs   int64                     `json:"runtime_ms"`
}

// validate checks the request and normalizes FitStatsOn.
func (r *TrainRequest) validate() error {
	if r.DataPath == "" {
		return core.NewConfigError("data", "path is required")
	}
	if r.OutDir == "" {
		return core.NewConfigError("out", "directory is required")
	}
	if r.TestFraction <= 0 || r.TestFraction >= 1 {
		return core.NewConfigError("test_fraction", fmt.Sprintf("must be in (0,1), got %g", r.TestFraction))
	}
	mode, err := features.ParseFitMode(string(r.FitStatsOn))
	if err != nil {
		return err
	}
	r.FitStatsOn = mode
	if r.CVFolds < 0 || r.CVFolds == 1 {
		return core.NewConfigError("cv", fmt.Sprintf("must be 0 (off) or >= 2, got %d", r.CVFolds))
	}
	return r.Model.Validate()
}

// loadLabeled reads a table and adds the combined potentials and the phase label.
func (s *PipelineService) loadLabeled(path string) (*eos.RecordSet, error) {
	rs, err := s.reader.Load(path)
	if err != nil {
		return nil, err
	}
	if rs, err = eos.AddCombinedPotential(rs); err != nil {
		return nil, err
	}
	return eos.AddPhaseLabel(rs)
}

// Train fits a model and writes model.joblib and metrics.json into req.OutDir.
// Nothing is written unless training and evaluation succeed.
func (s *PipelineService) Train(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	start := time.Now()
	if err := req.validate(); err != nil {
		return nil, err
	}

	rs, err := s.loadLabeled(req.DataPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	splitter := split.NewStratifiedSplitter(req.Seed).WithLogger(s.logger.WithComponent("split"))
	train, eval, summary, err := splitter.Split(rs, req.TestFraction)
	if err != nil {
		return nil, err
	}

	pair, err := features.BuildPair(train, eval, req.FitStatsOn)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := model.NewTrainer(req.Model).WithLogger(s.logger.WithComponent("model")).Fit(pair.TrainX, pair.TrainY)
	if err != nil {
		return nil, err
	}
	if req.FitStatsOn == features.TrainOnly {
		m = m.WithStats(features.TrainOnly, pair.Stats)
	}

	var metrics SplitMetrics
	if metrics.Train, err = evaluation.Evaluate(m, pair.TrainX, pair.TrainY); err != nil {
		return nil, errors.Wrap(err, "evaluate train split")
	}
	if metrics.Test, err = evaluation.Evaluate(m, pair.EvalX, pair.EvalY); err != nil {
		return nil, errors.Wrap(err, "evaluate test split")
	}
	if req.CVFolds > 0 {
		cv := evaluation.NewCrossValidator(req.Model, req.FitStatsOn).WithLogger(s.logger.WithComponent("crossval"))
		if metrics.CV, err = cv.Run(train, req.CVFolds, req.Seed); err != nil {
			return nil, errors.Wrap(err, "cross-validate")
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dataHash, err := core.HashFile(req.DataPath)
	if err != nil {
		return nil, errors.Wrap(err, "hash input table")
	}

	modelPath, err := s.store.Save(m, filepath.Join(req.OutDir, modelstore.DefaultFileName))
	if err != nil {
		return nil, err
	}
	metricsJSON, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode metrics")
	}
	metricsPath := filepath.Join(req.OutDir, MetricsFileName)
	if err := os.WriteFile(metricsPath, metricsJSON, 0o644); err != nil {
		return nil, errors.Wrapf(err, "write %s", metricsPath)
	}

	result := &TrainResult{
		ModelPath:   modelPath,
		MetricsPath: metricsPath,
		Metrics:     metrics,
		Split:       summary,
		Importances: m.FeatureImportances(),
	}

	fp := run.NewRunFingerprint(dataHash, string(m.Kind), req.Seed, req.TestFraction, string(req.FitStatsOn), run.CodeVersion)
	manifest := run.NewRunManifest(fp, req.DataPath, modelPath)
	manifest.TrainRows = summary.TrainRows
	manifest.EvalRows = summary.EvalRows
	manifest.TrainAccuracy = metrics.Train.Accuracy
	manifest.TestAccuracy = metrics.Test.Accuracy
	result.Manifest = manifest

	if req.Report {
		paths, err := report.WriteAll(req.OutDir, &report.Summary{
			RunID:        manifest.RunID.String(),
			ModelKind:    m.Kind,
			DataPath:     req.DataPath,
			Seed:         req.Seed,
			TestFraction: req.TestFraction,
			FitStatsOn:   string(req.FitStatsOn),
			TrainRows:    summary.TrainRows,
			EvalRows:     summary.EvalRows,
			Train:        metrics.Train,
			Test:         metrics.Test,
			CV:           metrics.CV,
			Importances:  result.Importances,
		})
		if err != nil {
			return nil, errors.Wrap(err, "write report")
		}
		result.ReportPaths = paths
	}

	if s.ledger != nil {
		compact, err := json.Marshal(metrics)
		if err != nil {
			return nil, errors.Wrap(err, "encode metrics")
		}
		if err := s.ledger.Record(ctx, manifest, compact); err != nil {
			return nil, errors.Wrap(err, "record run")
		}
	}

	result.RuntimeMs = time.Since(start).Milliseconds()
	s.logger.Info("run %s: %s on %s train / %s test rows, test accuracy %.4f (%s)",
		manifest.RunID, m.Kind,
		humanize.Comma(int64(summary.TrainRows)), humanize.Comma(int64(summary.EvalRows)),
		metrics.Test.Accuracy, time.Since(start).Round(time.Millisecond))
	return result, nil
}

// Featurize builds the feature matrix the model expects for rs: the stored
// training statistics for train-only models, rs's own statistics otherwise.
func Featurize(m *model.Model, rs *eos.RecordSet) (*features.FeatureMatrix, []int, error) {
	if m.FitMode == features.TrainOnly && m.Stats != nil {
		return features.BuildWith(rs, m.Stats)
	}
	return features.Build(rs)
}

// Evaluate scores a saved model on a full table.
func (s *PipelineService) Evaluate(ctx context.Context, dataPath, modelPath string) (evaluation.Metrics, error) {
	m, err := s.store.Load(modelPath)
	if err != nil {
		return evaluation.Metrics{}, err
	}
	rs, err := s.loadLabeled(dataPath)
	if err != nil {
		return evaluation.Metrics{}, err
	}
	if err := ctx.Err(); err != nil {
		return evaluation.Metrics{}, err
	}
	X, y, err := Featurize(m, rs)
	if err != nil {
		return evaluation.Metrics{}, err
	}
	metrics, err := evaluation.Evaluate(m, X, y)
	if err != nil {
		return evaluation.Metrics{}, err
	}
	s.logger.Info("evaluated %s model on %s rows: accuracy %.4f",
		m.Kind, humanize.Comma(int64(len(y))), metrics.Accuracy)
	return metrics, nil
}

// LoadModel reads a saved model.
func (s *PipelineService) LoadModel(path string) (*model.Model, error) {
	return s.store.Load(path)
}

// Predict classifies one input row with a saved model.
func (s *PipelineService) Predict(modelPath string, in PredictInput) (Prediction, error) {
	m, err := s.store.Load(modelPath)
	if err != nil {
		return Prediction{}, err
	}
	return NewPredictor(m).Predict(in)
}

// Figures renders the scatter projections of a table into outDir.
func (s *PipelineService) Figures(ctx context.Context, dataPath, outDir string) ([]string, error) {
	rs, err := s.reader.Load(dataPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return figures.NewRenderer().WithLogger(s.logger.WithComponent("figures")).Render(rs, outDir)
}
