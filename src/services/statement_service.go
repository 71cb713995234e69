// backend/src/services/statement_service.go
package services

import (
	"context"
	"strings"

	"github.com/username/financetrackr/backend/src/ai"
	"github.com/username/financetrackr/backend/src/logger"
	"github.com/username/financetrackr/backend/src/parser"
)

type statementServiceImpl struct {
	extractor     TextExtractor
	gateway       AIGateway
	maxTextLength int
}

func NewStatementService(extractor TextExtractor, gateway AIGateway, maxTextLength int) StatementService {
	return &statementServiceImpl{
		extractor:     extractor,
		gateway:       gateway,
		maxTextLength: maxTextLength,
	}
}

// ParseStatement runs the full pipeline for one uploaded document. Errors
// from each stage keep their package sentinels so the HTTP layer can map
// them onto response codes.
func (s *statementServiceImpl) ParseStatement(ctx context.Context, doc []byte, password string) (*parser.Result, error) {
	log := logger.FromContext(ctx)

	text, err := s.extractor.Extract(doc, password)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoTextContent
	}
	log.Info("Text extracted from PDF", "chars", len(text))

	prompt := ai.BuildPrompt(text, s.maxTextLength)
	completion, err := s.gateway.Converse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := parser.Extract(completion)
	if err != nil {
		return nil, err
	}

	log.Info("PDF parsing complete", "transactions", result.TransactionCount())
	return result, nil
}
