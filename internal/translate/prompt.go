package translate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemPrompt states the hard rules every backend sends. The gate enforces
// all of them anyway; stating them keeps well-behaved models inside the happy
// path.
const systemPrompt = "You are an expert data analyst who writes correct SQL. " +
	"Hard rules: output ONLY SQL, no markdown and no explanations; " +
	"output exactly ONE statement; the statement MUST be a SELECT (read-only); " +
	"use only tables and columns that exist in the provided schema; prefer simple SQL."

func buildUserPrompt(req Request) (string, error) {
	tablesJSON, err := json.Marshal(req.Tables)
	if err != nil {
		return "", fmt.Errorf("marshal table context: %w", err)
	}
	return fmt.Sprintf(
		"Database dialect: %s\nSchema and sample context (JSON):\n%s\n\nTask:\nWrite ONE SELECT query that answers:\n%s\n\nReturn ONLY the SQL.",
		req.Dialect,
		string(tablesJSON),
		strings.TrimSpace(req.Question),
	), nil
}
