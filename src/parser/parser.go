// backend/src/parser/parser.go
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/username/financetrackr/backend/src/logger"
)

// ErrResponseParse marks a model completion that did not contain a usable
// JSON object.
var ErrResponseParse = errors.New("could not parse AI response as JSON")

// Result holds the JSON object recovered from a model completion. Raw is the
// exact byte span between the outermost braces, returned to clients verbatim
// so the model's formatting of amounts and dates survives the trip.
type Result struct {
	Raw json.RawMessage
	doc map[string]any
}

// Extract locates the JSON object inside a completion and validates it.
// Models often wrap their answer in prose or markdown fences, so the span
// from the first "{" to the last "}" is taken as the candidate object.
func Extract(completion string) (*Result, error) {
	start := strings.Index(completion, "{")
	end := strings.LastIndex(completion, "}")
	if start == -1 || end < start {
		logger.L.Error("No JSON object in AI response", "preview", preview(completion, 500))
		return nil, fmt.Errorf("%w: no JSON found in AI response %q", ErrResponseParse, preview(completion, 200))
	}

	raw := completion[start : end+1]
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		logger.L.Error("AI response is not valid JSON", "error", err, "preview", preview(raw, 500))
		return nil, fmt.Errorf("%w: invalid JSON in AI response: %v: %q", ErrResponseParse, err, preview(raw, 200))
	}

	return &Result{Raw: json.RawMessage(raw), doc: doc}, nil
}

// TransactionCount reports how many entries the top-level "transactions"
// array holds. A missing or mis-typed field counts as zero; the count feeds
// logging, never validation.
func (r *Result) TransactionCount() int {
	list, ok := r.doc["transactions"].([]any)
	if !ok {
		return 0
	}
	return len(list)
}

func preview(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
