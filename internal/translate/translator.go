// Package translate defines the language-model capability that turns a
// natural-language question into a raw SQL completion. Completions are
// returned exactly as the model produced them; validation and fence stripping
// happen downstream in the safety gate, so no provider output bypasses it.
package translate

import "context"

type TableContext struct {
	TableName  string   `json:"table_name"`
	Columns    []string `json:"columns"`
	SampleRows [][]any  `json:"sample_rows,omitempty"`
}

type Request struct {
	Question string         `json:"question"`
	Dialect  string         `json:"dialect"`
	Tables   []TableContext `json:"tables"`
}

// Result carries the untrusted raw completion plus provenance for the audit
// log.
type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
