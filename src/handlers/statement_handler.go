// backend/src/handlers/statement_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/username/financetrackr/backend/src/ai"
	"github.com/username/financetrackr/backend/src/extractor"
	"github.com/username/financetrackr/backend/src/logger"
	"github.com/username/financetrackr/backend/src/parser"
	"github.com/username/financetrackr/backend/src/security/validation"
	"github.com/username/financetrackr/backend/src/services"
)

type StatementHandler struct {
	statementService services.StatementService
	maxUploadBytes   int64
}

func NewStatementHandler(service services.StatementService, maxUploadBytes int64) *StatementHandler {
	return &StatementHandler{
		statementService: service,
		maxUploadBytes:   maxUploadBytes,
	}
}

type parseResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// HandleParse accepts a multipart statement upload under the "file" field,
// runs the parse pipeline and answers with the model's JSON verbatim under
// "data". An optional "password" field unlocks encrypted documents.
func (h *StatementHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	defer func() {
		if rec := recover(); rec != nil {
			ctxLogger.Error("Panic while parsing statement", "panic", rec)
			sendCodedError(w, "PARSE_ERROR", fmt.Sprint(rec), http.StatusInternalServerError)
		}
	}()

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form", "error", err)
		sendJSONError(w, validation.ErrNoFileProvided.Error(), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Upload request has no 'file' field", "error", err)
		sendJSONError(w, validation.ErrNoFileProvided.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadBytes {
		ctxLogger.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", h.maxUploadBytes)
		sendJSONError(w, fmt.Sprintf("File is too large (max %d MB)", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateStatementFilename(fileHeader.Filename); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePDFMagicBytes(file); err != nil {
		ctxLogger.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	password := r.FormValue("password")
	ctxLogger.Info("Processing statement parse request", "filename", fileHeader.Filename, "size", fileHeader.Size, "passwordProvided", password != "")

	doc, err := io.ReadAll(file)
	if err != nil {
		ctxLogger.Error("Failed to read uploaded file", "filename", fileHeader.Filename, "error", err)
		sendCodedError(w, "EXTRACTION_FAILED", "Could not read uploaded file", http.StatusInternalServerError)
		return
	}

	// The pipeline keeps running even if the client goes away; a Bedrock
	// round trip already paid for is worth finishing and logging.
	ctx := context.WithoutCancel(r.Context())

	result, err := h.statementService.ParseStatement(ctx, doc, password)
	if err != nil {
		h.respondServiceError(w, ctxLogger, err)
		return
	}

	sendJSON(w, parseResponse{Success: true, Data: result.Raw}, http.StatusOK)
}

// respondServiceError maps pipeline sentinels onto the response contract.
func (h *StatementHandler) respondServiceError(w http.ResponseWriter, ctxLogger *slog.Logger, err error) {
	ctxLogger.Error("Statement parsing failed", "error", err)

	switch {
	case errors.Is(err, extractor.ErrPasswordRequired):
		sendCodedError(w, "PDF_PASSWORD_REQUIRED", "This PDF is password-protected. Please provide a password.", http.StatusUnauthorized)
	case errors.Is(err, extractor.ErrInvalidPassword):
		sendCodedError(w, "PDF_INVALID_PASSWORD", "Invalid password. Please try again.", http.StatusUnauthorized)
	case errors.Is(err, services.ErrNoTextContent):
		sendCodedError(w, "EXTRACTION_FAILED", "Could not extract text from PDF", http.StatusInternalServerError)
	case errors.Is(err, extractor.ErrExtractionFailed):
		sendCodedError(w, "EXTRACTION_FAILED", err.Error(), http.StatusInternalServerError)
	case errors.Is(err, ai.ErrGateway):
		sendCodedError(w, "FORMAT_FAILED", "Could not format extracted text with AI", http.StatusInternalServerError)
	case errors.Is(err, parser.ErrResponseParse):
		sendCodedError(w, "PARSE_FAILED", "Could not parse AI response as JSON", http.StatusInternalServerError)
	default:
		sendCodedError(w, "PARSE_ERROR", err.Error(), http.StatusInternalServerError)
	}
}

// HandleHealth reports liveness for load balancers and uptime checks.
func (h *StatementHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, map[string]string{"status": "ok", "service": "pdf-parser"}, http.StatusOK)
}
