package report

import (
	"encoding/json"
	"fmt"
	"io"
)

type sarifOutput struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID  string       `json:"ruleId"`
	Level   string       `json:"level"`
	Message sarifMessage `json:"message"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

// WritePruneSARIF renders the findings a CI system should annotate: callables
// discovery could not bind and directives that matched nothing.
func WritePruneSARIF(w io.Writer, r PruneReport, version string) error {
	rules := []sarifRule{
		{ID: "CGOGEN001", Name: "UnbindableDeclaration", ShortDescription: sarifMessage{Text: "Declaration cannot be bound and was skipped"}},
		{ID: "CGOGEN002", Name: "UnmatchedDirective", ShortDescription: sarifMessage{Text: "Directive entry matched no discovered declaration"}},
	}

	var results []sarifResult
	for _, s := range r.Skipped {
		results = append(results, sarifResult{
			RuleID:  "CGOGEN001",
			Level:   "warning",
			Message: sarifMessage{Text: fmt.Sprintf("skipped unbindable declaration: %s", s)},
		})
	}
	for _, u := range r.Unmatched {
		results = append(results, sarifResult{
			RuleID:  "CGOGEN002",
			Level:   "warning",
			Message: sarifMessage{Text: fmt.Sprintf("generate entry %q matched nothing", u)},
		})
	}

	out := sarifOutput{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "cgogen",
						Version: version,
						Rules:   rules,
					},
				},
				Results: results,
			},
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
