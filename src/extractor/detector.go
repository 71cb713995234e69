// backend/src/extractor/detector.go
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/username/financetrackr/backend/src/logger"
)

// inspectEncryption reports whether the document carries an encryption
// dictionary. The text-extraction library reports encryption problems as
// free-form error text, so encryption status is resolved up front with a
// dedicated read that yields a reliable signal.
func inspectEncryption(doc []byte) (bool, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(doc), conf)
	if err != nil {
		if isPasswordError(err) {
			// The read itself demanded a password, so the document is
			// encrypted with a non-empty user password.
			return true, nil
		}
		return false, fmt.Errorf("%w: reading document: %v", ErrExtractionFailed, err)
	}
	return ctx.Encrypt != nil, nil
}

// decryptDocument rewrites an encrypted document as a plain copy, checking
// the supplied password along the way. The password is offered as both user
// and owner password, matching the try-user-then-owner behavior of standard
// PDF readers. The text-extraction library only decrypts a narrow slice of
// the encryption schemes found in real statements (classic RC4, AES-128),
// so extraction always runs on the decrypted copy instead.
func decryptDocument(doc []byte, password string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password
	// Classic cross reference table in the decrypted copy; the text
	// library reads that form most reliably.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(doc), &out, conf); err != nil {
		if isPasswordError(err) {
			logger.L.Warn("Password rejected for encrypted document")
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("%w: unlocking document: %v", ErrExtractionFailed, err)
	}
	logger.L.Info("Document decrypted", "bytes", out.Len())
	return out.Bytes(), nil
}

// isPasswordError matches pdfcpu's "please provide the correct password"
// family of errors.
func isPasswordError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "password")
}
