// backend/src/handlers/statement_handler_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/financetrackr/backend/src/ai"
	"github.com/username/financetrackr/backend/src/extractor"
	"github.com/username/financetrackr/backend/src/parser"
	"github.com/username/financetrackr/backend/src/services"
)

const testMaxUpload = 10 * 1024 * 1024

type stubStatementService struct {
	result      *parser.Result
	err         error
	panicValue  any
	gotDoc      []byte
	gotPassword string
}

func (s *stubStatementService) ParseStatement(ctx context.Context, doc []byte, password string) (*parser.Result, error) {
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	s.gotDoc = doc
	s.gotPassword = password
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func mustResult(t *testing.T, raw string) *parser.Result {
	t.Helper()
	result, err := parser.Extract(raw)
	require.NoError(t, err)
	return result
}

// newParseRequest builds a multipart POST. An empty filename leaves the file
// part out entirely; an empty password leaves the password field out.
func newParseRequest(t *testing.T, filename string, content []byte, password string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if password != "" {
		require.NoError(t, mw.WriteField("password", password))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/pdf/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHandleHealth(t *testing.T) {
	h := NewStatementHandler(&stubStatementService{}, testMaxUpload)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/pdf/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status": "ok", "service": "pdf-parser"}`, rec.Body.String())
}

func TestHandleParse(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &stubStatementService{result: mustResult(t, `{"transactions": [{"amount": "1,000.00"}]}`)}
		h := NewStatementHandler(svc, testMaxUpload)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "statement.pdf", []byte("%PDF-1.4 content"), "secret"))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.JSONEq(t, `{"transactions": [{"amount": "1,000.00"}]}`, string(resp.Data))

		assert.Equal(t, []byte("%PDF-1.4 content"), svc.gotDoc)
		assert.Equal(t, "secret", svc.gotPassword)
	})

	t.Run("absent password arrives empty", func(t *testing.T) {
		svc := &stubStatementService{result: mustResult(t, `{"transactions": []}`)}
		h := NewStatementHandler(svc, testMaxUpload)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "statement.pdf", []byte("%PDF-1.4 x"), ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "", svc.gotPassword)
	})

	t.Run("uppercase extension accepted", func(t *testing.T) {
		svc := &stubStatementService{result: mustResult(t, `{"transactions": []}`)}
		h := NewStatementHandler(svc, testMaxUpload)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "STATEMENT.PDF", []byte("%PDF-1.4 x"), ""))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		svc := &stubStatementService{}
		h := NewStatementHandler(svc, testMaxUpload)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "", nil, ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "No file provided"}`, rec.Body.String())
		assert.Nil(t, svc.gotDoc)
	})

	t.Run("body is not multipart", func(t *testing.T) {
		svc := &stubStatementService{}
		h := NewStatementHandler(svc, testMaxUpload)

		req := httptest.NewRequest(http.MethodPost, "/api/pdf/parse", strings.NewReader("raw body"))
		rec := httptest.NewRecorder()
		h.HandleParse(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "No file provided"}`, rec.Body.String())
		assert.Nil(t, svc.gotDoc)
	})

	t.Run("non-pdf extension", func(t *testing.T) {
		svc := &stubStatementService{}
		h := NewStatementHandler(svc, testMaxUpload)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "statement.csv", []byte("date,amount"), ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "File must be a PDF"}`, rec.Body.String())
		assert.Nil(t, svc.gotDoc)
	})

	t.Run("pdf extension with foreign signature", func(t *testing.T) {
		svc := &stubStatementService{}
		h := NewStatementHandler(svc, testMaxUpload)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "statement.pdf", []byte("MZ\x90\x00 not a pdf"), ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "File must be a PDF"}`, rec.Body.String())
		assert.Nil(t, svc.gotDoc)
	})

	t.Run("file over the size cap", func(t *testing.T) {
		svc := &stubStatementService{}
		h := NewStatementHandler(svc, 16)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "statement.pdf", []byte("%PDF-1.4 well over sixteen bytes"), ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Contains(t, body["error"], "File is too large")
		assert.Nil(t, svc.gotDoc)
	})

	errorCases := []struct {
		name        string
		serviceErr  error
		wantStatus  int
		wantError   string
		wantMessage string
	}{
		{
			name:        "password required",
			serviceErr:  extractor.ErrPasswordRequired,
			wantStatus:  http.StatusUnauthorized,
			wantError:   "PDF_PASSWORD_REQUIRED",
			wantMessage: "This PDF is password-protected. Please provide a password.",
		},
		{
			name:        "invalid password",
			serviceErr:  fmt.Errorf("unlock: %w", extractor.ErrInvalidPassword),
			wantStatus:  http.StatusUnauthorized,
			wantError:   "PDF_INVALID_PASSWORD",
			wantMessage: "Invalid password. Please try again.",
		},
		{
			name:        "no text content",
			serviceErr:  services.ErrNoTextContent,
			wantStatus:  http.StatusInternalServerError,
			wantError:   "EXTRACTION_FAILED",
			wantMessage: "Could not extract text from PDF",
		},
		{
			name:        "extraction failure keeps its detail",
			serviceErr:  fmt.Errorf("%w: malformed xref table", extractor.ErrExtractionFailed),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "EXTRACTION_FAILED",
			wantMessage: "pdf text extraction failed: malformed xref table",
		},
		{
			name:        "gateway failure",
			serviceErr:  fmt.Errorf("%w: throttled", ai.ErrGateway),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "FORMAT_FAILED",
			wantMessage: "Could not format extracted text with AI",
		},
		{
			name:        "unparseable completion",
			serviceErr:  fmt.Errorf("%w: no JSON found in AI response", parser.ErrResponseParse),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "PARSE_FAILED",
			wantMessage: "Could not parse AI response as JSON",
		},
		{
			name:        "unexpected failure",
			serviceErr:  errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "PARSE_ERROR",
			wantMessage: "connection reset",
		},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewStatementHandler(&stubStatementService{err: tc.serviceErr}, testMaxUpload)

			rec := httptest.NewRecorder()
			h.HandleParse(rec, newParseRequest(t, "statement.pdf", []byte("%PDF-1.4 x"), ""))

			assert.Equal(t, tc.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tc.wantError, body["error"])
			assert.Equal(t, tc.wantMessage, body["message"])
		})
	}

	t.Run("panic maps to PARSE_ERROR", func(t *testing.T) {
		h := NewStatementHandler(&stubStatementService{panicValue: "slice bounds out of range"}, testMaxUpload)

		rec := httptest.NewRecorder()
		h.HandleParse(rec, newParseRequest(t, "statement.pdf", []byte("%PDF-1.4 x"), ""))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "PARSE_ERROR", body["error"])
		assert.Equal(t, "slice bounds out of range", body["message"])
	})
}
