// backend/src/extractor/extractor.go
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/username/financetrackr/backend/src/logger"
)

// PageBreakMarker separates per-page text segments in the extraction result.
// It is appended after every page, including pages that yielded no text, so
// page boundaries survive the concatenation.
const PageBreakMarker = "\n--- PAGE BREAK ---\n"

var (
	// ErrPasswordRequired signals an encrypted document submitted without a password.
	ErrPasswordRequired = errors.New("pdf is password-protected")
	// ErrInvalidPassword signals an encrypted document whose password was rejected.
	ErrInvalidPassword = errors.New("invalid pdf password")
	// ErrExtractionFailed signals any other failure to get text out of the document.
	ErrExtractionFailed = errors.New("pdf text extraction failed")
)

// Extractor turns raw PDF bytes into a single text blob with page-break
// markers. It is stateless and safe for concurrent use.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the concatenated page text of the document. The encryption
// check runs first; an encrypted document is rewritten as a plain copy before
// the text library ever sees it, so extraction itself always starts without a
// password.
func (e *Extractor) Extract(doc []byte, password string) (string, error) {
	if len(doc) == 0 {
		return "", fmt.Errorf("%w: document is empty", ErrExtractionFailed)
	}
	logger.L.Info("Extracting text from PDF", "bytes", len(doc))

	encrypted, err := inspectEncryption(doc)
	if err != nil {
		return "", err
	}

	if encrypted {
		logger.L.Info("PDF is encrypted")
		if password == "" {
			return "", ErrPasswordRequired
		}
		decrypted, err := decryptDocument(doc, password)
		if err != nil {
			return "", err
		}
		doc = decrypted
	}

	text, err := extractAllPages(doc, "")
	if err == nil {
		return text, nil
	}
	if !isEncryptionError(err) || password == "" {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	logger.L.Info("Document rejected the passwordless open", "error", err)

	// Some documents misreport their encryption state to the inspection
	// step; offer the password to the text library directly before giving up.
	text, err = extractAllPages(doc, password)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return text, nil
}

// extractAllPages walks every page in document order and concatenates the
// extracted text, appending the page-break marker after each page.
func extractAllPages(doc []byte, password string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf library panicked: %v", rec)
		}
	}()

	ra := bytes.NewReader(doc)
	var r *pdf.Reader
	if password == "" {
		r, err = pdf.NewReader(ra, int64(len(doc)))
	} else {
		attempts := 0
		r, err = pdf.NewReaderEncrypted(ra, int64(len(doc)), func() string {
			// Offer the password once; an empty string stops the library's
			// retry loop instead of looping forever.
			attempts++
			if attempts == 1 {
				return password
			}
			return ""
		})
	}
	if err != nil {
		return "", err
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		pageText := extractPageText(r, i)
		b.WriteString(pageText)
		b.WriteString(PageBreakMarker)
		logger.L.Debug("Page extracted", "page", i, "chars", len(pageText))
	}

	logger.L.Info("Text extraction complete", "pages", numPages, "chars", b.Len())
	return b.String(), nil
}

// extractPageText extracts one page. A bad page (broken fonts, malformed
// content stream, scanned image) yields an empty string, never a failure.
func extractPageText(r *pdf.Reader, pageNum int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.L.Warn("PDF library panicked on page, treating as empty", "page", pageNum, "panic", rec)
			text = ""
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}

	// Rows first: keeps amounts on the same line as their descriptions,
	// which matters for statement tables.
	if text := extractRows(page); text != "" {
		return text
	}

	// Fall back to the plain text stream with the page's font map.
	fontNames := page.Fonts()
	fonts := make(map[string]*pdf.Font, len(fontNames))
	for _, name := range fontNames {
		f := page.Font(name)
		fonts[name] = &f
	}
	plain, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(plain)
}

// extractRows reads the page row by row, joining words with spaces and rows
// with newlines.
func extractRows(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}
	var lines []string
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// isEncryptionError reports whether the extraction library failed because of
// the document's encryption state. The library surfaces these as free-form
// text, hence the string matching.
func isEncryptionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "decrypt") || strings.Contains(msg, "password")
}
