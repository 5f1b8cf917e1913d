// Package report assembles machine-readable run reports.
package report

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/stepdown/internal/analysis"
)

// Metadata identifies one run.
type Metadata struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	FileCount   int       `json:"file_count"`
}

// AnalyzeReport is the JSON envelope for an analyze run.
type AnalyzeReport struct {
	Metadata Metadata                   `json:"_metadata"`
	Results  []*analysis.AnalysisResult `json:"results"`
	Totals   AnalyzeTotals              `json:"totals"`
}

// AnalyzeTotals aggregates an analyze run.
type AnalyzeTotals struct {
	Functions          int `json:"functions"`
	StepdownViolations int `json:"stepdown_violations"`
	NestedViolations   int `json:"nested_violations"`
	Cycles             int `json:"cycles"`
	Errors             int `json:"errors"`
}

// NewAnalyzeReport builds the report for a set of results.
func NewAnalyzeReport(results []*analysis.AnalysisResult) *AnalyzeReport {
	r := &AnalyzeReport{
		Metadata: Metadata{
			RunID:       uuid.NewString(),
			GeneratedAt: time.Now().UTC(),
			FileCount:   len(results),
		},
		Results: results,
	}
	for _, res := range results {
		r.Totals.Functions += res.TotalFunctions
		r.Totals.StepdownViolations += len(res.StepdownViolations)
		r.Totals.NestedViolations += len(res.NestedViolations)
		r.Totals.Cycles += len(res.Cycles)
		if res.Error != "" {
			r.Totals.Errors++
		}
	}
	return r
}

// FixReport is the JSON envelope for a fix run.
type FixReport struct {
	Metadata Metadata              `json:"_metadata"`
	Results  []*analysis.FixResult `json:"results"`
	Totals   FixTotals             `json:"totals"`
}

// FixTotals aggregates a fix run.
type FixTotals struct {
	Fixed  int `json:"fixed"`
	Moved  int `json:"moved"`
	Errors int `json:"errors"`
}

// NewFixReport builds the report for a set of fix results.
func NewFixReport(results []*analysis.FixResult) *FixReport {
	r := &FixReport{
		Metadata: Metadata{
			RunID:       uuid.NewString(),
			GeneratedAt: time.Now().UTC(),
			FileCount:   len(results),
		},
		Results: results,
	}
	for _, res := range results {
		if res.Fixed {
			r.Totals.Fixed++
		}
		r.Totals.Moved += res.MovedCount
		if len(res.Errors) > 0 {
			r.Totals.Errors++
		}
	}
	return r
}

// JSON renders a report with indentation.
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
