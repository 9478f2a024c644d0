package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nestegg-app/nestegg/internal/domain"
	"github.com/nestegg-app/nestegg/internal/infra/observability"
)

// ─── Bulk Paste Parsing ─────────────────────────────────────────────────────
// Clipboard-pasted tabular text: tab- or comma-delimited, optional header
// row. First column is an identifier (or positional index for the grid
// variant), second column a numeric value, optional third column an account
// hint substring.

// PasteResult reports the outcome of a bulk paste. Malformed individual
// lines never abort the batch; they are collected as line-indexed errors.
type PasteResult struct {
	SuccessCount  int      `json:"success_count"`
	FailedCount   int      `json:"failed_count"`
	Errors        []string `json:"errors,omitempty"`
	HeaderSkipped bool     `json:"header_skipped"`
}

// headerVocabulary lists first-cell words that always mark a header line.
var headerVocabulary = map[string]bool{
	"ticker":     true,
	"symbol":     true,
	"quantity":   true,
	"identifier": true,
}

// ApplyPaste parses pasted identifier/value text and applies the values as
// drafts onto matching rows.
//
// Matching is case-insensitive on row identifiers. When accountHint (or a
// line's third column) narrows the matches to exactly one row, only that row
// receives the value. Otherwise the value is applied to ALL rows matching
// the identifier. Broadcast is deliberate: a pasted ticker with no
// account qualifier is assumed to apply uniformly, e.g. after a stock split.
func ApplyPaste(store *Store, rows []domain.Row, text, accountHint string) PasteResult {
	var res PasteResult
	lines := splitDataLines(text)
	if len(lines) == 0 {
		res.Errors = append(res.Errors, "no data in pasted text")
		return res
	}

	start := 0
	if isHeaderLine(lines) {
		res.HeaderSkipped = true
		start = 1
	}

	for i := start; i < len(lines); i++ {
		tokens := lines[i]
		lineNo := i + 1
		if len(tokens) < 2 {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: expected identifier and value", lineNo))
			continue
		}

		value, err := ParseNumber(tokens[1])
		if err != nil {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: cannot parse value %q", lineNo, tokens[1]))
			continue
		}

		hint := accountHint
		if len(tokens) >= 3 && tokens[2] != "" {
			hint = tokens[2]
		}

		matches := matchRows(rows, tokens[0], hint)
		if len(matches) == 0 {
			res.FailedCount++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: no row matches identifier %q", lineNo, tokens[0]))
			continue
		}
		for _, row := range matches {
			store.SetValue(row, value)
		}
		res.SuccessCount++
	}

	observability.PasteLines.WithLabelValues("applied").Add(float64(res.SuccessCount))
	observability.PasteLines.WithLabelValues("failed").Add(float64(res.FailedCount))
	return res
}

// GridResult reports the outcome of a flat positional paste.
type GridResult struct {
	Applied int      `json:"applied"`
	Ignored int      `json:"ignored"` // pasted values beyond the visible rows
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`

	// HeaderWarning flags a first value that looks like a non-numeric header
	// but was NOT skipped; the ambiguity is surfaced to the user rather
	// than silently resolved.
	HeaderWarning bool `json:"header_warning"`
}

// ApplyGridPaste maps pasted values 1:1 positionally onto the visible rows,
// in their current sorted order. Excess values are ignored; rows beyond the
// pasted values are left untouched.
func ApplyGridPaste(store *Store, visible []domain.Row, text string) GridResult {
	var res GridResult
	lines := splitDataLines(text)

	values := make([]string, 0, len(lines))
	for _, tokens := range lines {
		values = append(values, tokens[0])
	}

	if len(values) > 0 {
		if _, err := ParseNumber(values[0]); err != nil {
			for _, v := range values[1:] {
				if _, err := ParseNumber(v); err == nil {
					res.HeaderWarning = true
					break
				}
			}
		}
	}

	for i, raw := range values {
		if i >= len(visible) {
			res.Ignored = len(values) - len(visible)
			break
		}
		v, err := ParseNumber(raw)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: cannot parse value %q", i+1, raw))
			continue
		}
		store.SetValue(visible[i], v)
		res.Applied++
	}

	observability.PasteLines.WithLabelValues("applied").Add(float64(res.Applied))
	observability.PasteLines.WithLabelValues("failed").Add(float64(res.Failed))
	observability.PasteLines.WithLabelValues("skipped").Add(float64(res.Ignored))
	return res
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// splitDataLines splits pasted text into trimmed token rows. Each line is
// split by tab when one is present, else by comma.
func splitDataLines(text string) [][]string {
	var out [][]string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sep := ","
		if strings.Contains(line, "\t") {
			sep = "\t"
		}
		raw := strings.Split(line, sep)
		tokens := make([]string, len(raw))
		for i, t := range raw {
			tokens[i] = strings.TrimSpace(t)
		}
		out = append(out, tokens)
	}
	return out
}

// isHeaderLine decides whether the first parsed line is a header. Either its
// first cell is a known header word, or, as the general heuristic, its value
// cell fails to parse as a number while at least one later line's value cell
// does parse. Never plain string matching alone.
//
// The numeric heuristic deliberately inspects the value cell, not the first
// cell: identifiers (tickers, names) never parse as numbers, so a first-cell
// check would flag every line. The first cell is only consulted for the
// vocabulary match above.
func isHeaderLine(lines [][]string) bool {
	first := lines[0]
	if headerVocabulary[strings.ToLower(first[0])] {
		return true
	}
	if len(first) < 2 {
		return false
	}
	if _, err := ParseNumber(first[1]); err == nil {
		return false
	}
	for _, later := range lines[1:] {
		if len(later) >= 2 {
			if _, err := ParseNumber(later[1]); err == nil {
				return true
			}
		}
	}
	return false
}

// matchRows returns the rows whose identifier equals ident
// (case-insensitive). A non-empty hint narrows by substring match on
// institution, sub-label, or name, but only when it resolves to exactly
// one row; otherwise all identifier matches are returned.
func matchRows(rows []domain.Row, ident, hint string) []domain.Row {
	var matches []domain.Row
	for _, row := range rows {
		if strings.EqualFold(row.Identifier, ident) {
			matches = append(matches, row)
		}
	}
	if hint == "" || len(matches) <= 1 {
		return matches
	}

	h := strings.ToLower(hint)
	var narrowed []domain.Row
	for _, row := range matches {
		if strings.Contains(strings.ToLower(row.Institution), h) ||
			strings.Contains(strings.ToLower(row.SubLabel), h) ||
			strings.Contains(strings.ToLower(row.Name), h) {
			narrowed = append(narrowed, row)
		}
	}
	if len(narrowed) == 1 {
		return narrowed
	}
	return matches
}

// ParseNumber parses a pasted numeric token, tolerating currency symbols,
// thousands separators, percent signs, and accounting-style
// parentheses-as-negative ("(1,234.56)" = -1234.56).
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch r {
		case '$', '€', '£', ',', '%', ' ':
			// strip
		default:
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: not a number", s)
	}
	if negative {
		v = -v
	}
	return v, nil
}
