package sqlgate

import "strings"

// leadingKeywords are the statement-introducing keywords the extractor
// recognizes. Anything else is prose, not SQL. Non-read keywords stay in the
// set so the classifier can reject them with the right reason instead of
// no_statement_found.
var leadingKeywords = map[string]struct{}{
	"select": {}, "with": {}, "values": {}, "explain": {},
	"insert": {}, "update": {}, "delete": {}, "replace": {},
	"create": {}, "drop": {}, "alter": {},
	"begin": {}, "commit": {}, "rollback": {}, "end": {}, "savepoint": {}, "release": {},
	"pragma": {}, "attach": {}, "detach": {}, "vacuum": {}, "analyze": {}, "reindex": {},
	"grant": {}, "revoke": {},
}

// Extract isolates a single SQL statement candidate from a raw model
// completion. It strips a surrounding markdown fence, trims whitespace and one
// trailing terminator, and rejects anything containing an interior terminator
// outside quoted literals. Extraction either yields one clean candidate or
// fails closed.
func Extract(raw string) (string, *Rejection) {
	candidate := stripFence(raw)
	candidate = strings.TrimSpace(candidate)
	candidate = strings.TrimSpace(strings.TrimSuffix(candidate, ";"))

	if candidate == "" {
		return "", reject(ReasonNoStatementFound, "completion contains no SQL statement", raw)
	}
	if pos := terminatorOutsideQuotes(candidate); pos >= 0 {
		return "", reject(ReasonMultipleStatements, "statement terminator followed by further content", candidate[pos:])
	}
	if !startsWithKeyword(candidate) {
		return "", reject(ReasonNoStatementFound, "no recognizable SQL keyword", candidate)
	}
	return candidate, nil
}

// stripFence removes one surrounding markdown code fence. The fence language
// tag, if any, is ignored.
func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		// Drop the rest of the fence line (e.g. "sql").
		firstLine := strings.TrimSpace(trimmed[:idx])
		if !strings.ContainsAny(firstLine, " \t;") {
			trimmed = trimmed[idx+1:]
		}
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// terminatorOutsideQuotes returns the index of the first ';' that is not
// inside a single-quoted string or a double-quote/backtick/bracket-quoted
// identifier, or -1. Quote escaping follows SQLite: a doubled quote inside a
// quoted region is literal, which the scanner handles naturally by re-entering
// the quoted state.
func terminatorOutsideQuotes(s string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == '[':
			if c == ']' {
				quote = 0
			}
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`' || c == '[':
			quote = c
		case c == ';':
			return i
		}
	}
	return -1
}

func startsWithKeyword(candidate string) bool {
	fields := strings.FieldsFunc(candidate, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if len(fields) == 0 {
		return false
	}
	_, ok := leadingKeywords[strings.ToLower(fields[0])]
	return ok
}
