// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"

	"github.com/username/financetrackr/backend/src/parser"
)

// Define common service errors
var (
	// ErrNoTextContent means extraction succeeded mechanically but produced
	// nothing except whitespace, e.g. a scanned statement with no text layer.
	ErrNoTextContent = errors.New("could not extract text from PDF")
)

// TextExtractor pulls plain text out of a PDF document, unlocking it with
// the supplied password when the document is encrypted.
type TextExtractor interface {
	Extract(doc []byte, password string) (string, error)
}

// AIGateway turns a prompt into a model completion.
type AIGateway interface {
	Converse(ctx context.Context, prompt string) (string, error)
}

// StatementService defines the interface for the core statement parsing
// pipeline: extract text, format it with the model, parse the reply.
type StatementService interface {
	ParseStatement(ctx context.Context, doc []byte, password string) (*parser.Result, error)
}
