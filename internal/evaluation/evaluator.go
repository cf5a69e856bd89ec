package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/student-bot/backend/internal/query"
	"github.com/student-bot/backend/pkg/logger"
)

// Processor answers a single free-text query.
type Processor interface {
	ProcessQuery(ctx context.Context, text string) string
}

type Dataset struct {
	Items []DatasetItem `json:"items"`
}

// DatasetItem pairs a query with its expected answer. An empty Expected
// only requires that the query was understood and answered without error.
type DatasetItem struct {
	Query    string `json:"query"`
	Expected string `json:"expected,omitempty"`
	Category string `json:"category,omitempty"`
}

type ItemResult struct {
	Query    string
	Expected string
	Got      string
	Passed   bool
}

type Report struct {
	Total    int
	Passed   int
	Failed   int
	PassRate float64
	Results  []ItemResult
}

// DemoQueries are the canned questions the chatbot has always shipped with.
func DemoQueries() []string {
	return []string{
		"What is the roll number of Prasad?",
		"What is the CGPA of Prasad?",
		"Who are the students in the 2024 batch?",
		"What are the certifications of Prasad?",
		"What are the skills of Prasad?",
		"List the projects of Prasad.",
		"Where does Prasad live?",
		"What is the attendance of Prasad?",
		"What department is Prasad in?",
		"What is the date of birth of Prasad?",
	}
}

type Evaluator struct {
	processor Processor
}

func NewEvaluator(processor Processor) *Evaluator {
	return &Evaluator{processor: processor}
}

func (e *Evaluator) Run(ctx context.Context, dataset *Dataset) *Report {
	logger.Info("Running dataset evaluation", zap.Int("items", len(dataset.Items)))

	report := &Report{
		Total:   len(dataset.Items),
		Results: make([]ItemResult, 0, len(dataset.Items)),
	}

	for _, item := range dataset.Items {
		got := e.processor.ProcessQuery(ctx, item.Query)
		res := ItemResult{
			Query:    item.Query,
			Expected: item.Expected,
			Got:      got,
			Passed:   matches(item.Expected, got),
		}
		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
			logger.Debug("Evaluation mismatch",
				zap.String("query", item.Query),
				zap.String("expected", item.Expected),
				zap.String("got", got),
			)
		}
		report.Results = append(report.Results, res)
	}

	if report.Total > 0 {
		report.PassRate = float64(report.Passed) / float64(report.Total) * 100
	}

	logger.Info("Dataset evaluation completed",
		zap.Int("total", report.Total),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed),
	)

	return report
}

func matches(expected, got string) bool {
	if expected == "" {
		return got != query.MsgUnknown && got != query.MsgFailure
	}
	return strings.TrimSpace(expected) == got
}

func LoadDataset(data []byte) (*Dataset, error) {
	var dataset Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}
	return &dataset, nil
}

func LoadDatasetFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return LoadDataset(data)
}

func GenerateReport(report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluation Report\n=================\n\n")
	fmt.Fprintf(&b, "Total Queries: %d\n", report.Total)
	fmt.Fprintf(&b, "Passed: %d (%.1f%%)\n", report.Passed, report.PassRate)
	fmt.Fprintf(&b, "Failed: %d\n", report.Failed)

	if report.Failed > 0 {
		fmt.Fprintf(&b, "\nMismatches:\n")
		for _, r := range report.Results {
			if r.Passed {
				continue
			}
			fmt.Fprintf(&b, "- %s\n  expected: %s\n  got:      %s\n", r.Query, r.Expected, r.Got)
		}
	}

	return b.String()
}
