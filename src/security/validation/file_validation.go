package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/financetrackr/backend/src/logger"
)

// These failures surface verbatim in 400 response bodies, so the text is
// user-facing rather than Go-conventional.
var (
	ErrNoFileProvided = errors.New("No file provided")
	ErrNoFileSelected = errors.New("No file selected")
	ErrNotAPDF        = errors.New("File must be a PDF")
)

// pdfMagic is the five-byte signature every PDF version header starts with.
var pdfMagic = []byte("%PDF-")

// ValidateStatementFilename applies the naming rules for statement uploads:
// a filename must be present and carry a .pdf extension in any letter case.
func ValidateStatementFilename(filename string) error {
	if filename == "" {
		return ErrNoFileSelected
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		logger.L.Warn("Upload rejected, extension is not .pdf", "filename", filename)
		return ErrNotAPDF
	}
	return nil
}

// ValidatePDFMagicBytes checks the actual file content signature. Only a
// fully readable prefix that disagrees with %PDF- is rejected; shorter or
// unreadable prefixes pass through so the extractor can report the more
// specific failure.
func ValidatePDFMagicBytes(file io.ReadSeeker) error {
	if file == nil {
		return fmt.Errorf("file is nil")
	}

	buffer := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read file for signature checking: %w", err)
	}

	// IMPORTANT: Reset the file read pointer to the beginning so the extractor can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n < len(pdfMagic) {
		return nil
	}
	if !bytes.Equal(buffer, pdfMagic) {
		logger.L.Warn("Upload rejected, file signature is not PDF")
		return ErrNotAPDF
	}
	return nil
}
