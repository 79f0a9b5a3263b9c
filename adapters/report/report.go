// Package report renders training results as Markdown, HTML and Excel files.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eosphase/internal/evaluation"
	"eosphase/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/xuri/excelize/v2"
)

// File names written by WriteAll.
const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
	WorkbookFile = "metrics.xlsx"
)

// Summary is everything a report shows about one training run.
type Summary struct {
	RunID        string
	ModelKind    model.Kind
	DataPath     string
	Seed         int64
	TestFraction float64
	FitStatsOn   string
	TrainRows    int
	EvalRows     int
	Train        evaluation.Metrics
	Test         evaluation.Metrics
	CV           *evaluation.CVResult
	Importances  []model.FeatureImportance
}

type split struct {
	name    string
	metrics evaluation.Metrics
}

func (s *Summary) splits() []split {
	return []split{{"train", s.Train}, {"test", s.Test}}
}

// Markdown renders the summary as a Markdown document.
func Markdown(s *Summary) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Phase classifier report\n\n")
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`\n\n", s.RunID)
	}
	fmt.Fprintf(&b, "| Setting | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Model | %s |\n", s.ModelKind)
	fmt.Fprintf(&b, "| Data | `%s` |\n", s.DataPath)
	fmt.Fprintf(&b, "| Seed | %d |\n", s.Seed)
	fmt.Fprintf(&b, "| Test fraction | %g |\n", s.TestFraction)
	fmt.Fprintf(&b, "| Statistics | %s |\n", s.FitStatsOn)
	fmt.Fprintf(&b, "| Train rows | %s |\n", humanize.Comma(int64(s.TrainRows)))
	fmt.Fprintf(&b, "| Test rows | %s |\n\n", humanize.Comma(int64(s.EvalRows)))

	for _, sp := range s.splits() {
		r := sp.metrics.Report
		fmt.Fprintf(&b, "## %s (accuracy %.4f)\n\n", strings.ToUpper(sp.name[:1])+sp.name[1:], sp.metrics.Accuracy)
		fmt.Fprintf(&b, "| Class | Precision | Recall | F1 | Support |\n|---|---|---|---|---|\n")
		for _, row := range []struct {
			label string
			cr    evaluation.ClassReport
		}{
			{"0 (hadron)", r.Hadron},
			{"1 (quark)", r.Quark},
			{"macro avg", r.Macro},
			{"weighted avg", r.Weighted},
		} {
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %.0f |\n",
				row.label, row.cr.Precision, row.cr.Recall, row.cr.F1, row.cr.Support)
		}
		cm := sp.metrics.ConfusionMatrix
		fmt.Fprintf(&b, "\n| | pred 0 | pred 1 |\n|---|---|---|\n")
		fmt.Fprintf(&b, "| true 0 | %d | %d |\n| true 1 | %d | %d |\n\n", cm[0][0], cm[0][1], cm[1][0], cm[1][1])
	}

	if s.CV != nil {
		fmt.Fprintf(&b, "## Cross-validation (%d folds)\n\n", s.CV.Folds)
		fmt.Fprintf(&b, "Mean accuracy %.4f (+/- %.4f)\n\n| Fold | Accuracy |\n|---|---|\n", s.CV.Mean, 2*s.CV.Std)
		for i, score := range s.CV.Scores {
			fmt.Fprintf(&b, "| %d | %.4f |\n", i+1, score)
		}
		b.WriteString("\n")
	}

	if len(s.Importances) > 0 {
		fmt.Fprintf(&b, "## Feature importance\n\n| Feature | Importance |\n|---|---|\n")
		for _, fi := range s.Importances {
			fmt.Fprintf(&b, "| %s | %.4f |\n", fi.Feature, fi.Importance)
		}
		b.WriteString("\n")
	}
	return b.Bytes()
}

// HTML renders the Markdown report as a standalone HTML page.
func HTML(s *Summary) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("%s phase classifier", s.ModelKind),
	})
	return markdown.ToHTML(Markdown(s), p, renderer)
}

// WriteMarkdown writes the Markdown report to path.
func WriteMarkdown(path string, s *Summary) error {
	return os.WriteFile(path, Markdown(s), 0o644)
}

// WriteHTML writes the HTML report to path.
func WriteHTML(path string, s *Summary) error {
	return os.WriteFile(path, HTML(s), 0o644)
}

// WriteWorkbook writes metrics, confusion matrices and importances as
// separate sheets of an Excel workbook.
func WriteWorkbook(path string, s *Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	sheets := map[string][][]interface{}{
		"metrics":    metricRows(s),
		"confusion":  confusionRows(s),
		"importance": importanceRows(s),
	}
	order := []string{"metrics", "confusion", "importance"}
	if s.CV != nil {
		sheets["cv"] = cvRows(s.CV)
		order = append(order, "cv")
	}
	for i, name := range order {
		idx, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		for r, row := range sheets[name] {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", name, r+1, err)
			}
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func metricRows(s *Summary) [][]interface{} {
	rows := [][]interface{}{{"split", "class", "precision", "recall", "f1-score", "support"}}
	for _, sp := range s.splits() {
		r := sp.metrics.Report
		for _, c := range []struct {
			label string
			cr    evaluation.ClassReport
		}{{"0", r.Hadron}, {"1", r.Quark}, {"macro avg", r.Macro}, {"weighted avg", r.Weighted}} {
			rows = append(rows, []interface{}{sp.name, c.label, c.cr.Precision, c.cr.Recall, c.cr.F1, c.cr.Support})
		}
		rows = append(rows, []interface{}{sp.name, "accuracy", "", "", sp.metrics.Accuracy, r.Macro.Support})
	}
	return rows
}

func confusionRows(s *Summary) [][]interface{} {
	rows := [][]interface{}{{"split", "true", "pred 0", "pred 1"}}
	for _, sp := range s.splits() {
		cm := sp.metrics.ConfusionMatrix
		rows = append(rows,
			[]interface{}{sp.name, 0, cm[0][0], cm[0][1]},
			[]interface{}{sp.name, 1, cm[1][0], cm[1][1]})
	}
	return rows
}

func importanceRows(s *Summary) [][]interface{} {
	rows := [][]interface{}{{"feature", "importance"}}
	for _, fi := range s.Importances {
		rows = append(rows, []interface{}{fi.Feature, fi.Importance})
	}
	return rows
}

func cvRows(cv *evaluation.CVResult) [][]interface{} {
	rows := [][]interface{}{{"fold", "accuracy"}}
	for i, score := range cv.Scores {
		rows = append(rows, []interface{}{i + 1, score})
	}
	return append(rows,
		[]interface{}{"mean", cv.Mean},
		[]interface{}{"std", cv.Std})
}

// WriteAll writes the three report files into dir and returns their paths.
func WriteAll(dir string, s *Summary) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	writers := []struct {
		name  string
		write func(string, *Summary) error
	}{
		{MarkdownFile, WriteMarkdown},
		{HTMLFile, WriteHTML},
		{WorkbookFile, WriteWorkbook},
	}
	paths := make([]string, 0, len(writers))
	for _, w := range writers {
		path := filepath.Join(dir, w.name)
		if err := w.write(path, s); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
