package resume

import (
	"net/http"

	"github.com/adi-uchiha/jems/pkg/errx"
)

// Error Registry
var ErrRegistry = errx.NewRegistry("RESUME")

// Error codes. Absence of an active résumé is NOT an error and has no code.
var (
	CodeLoadFailed      = ErrRegistry.Register("LOAD_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to load resume")
	CodeMalformedRecord = ErrRegistry.Register("MALFORMED_RECORD", errx.TypeInternal, http.StatusInternalServerError, "Stored resume record is malformed")
)

func ErrLoadFailed() *errx.Error {
	return ErrRegistry.New(CodeLoadFailed)
}

func ErrMalformedRecord() *errx.Error {
	return ErrRegistry.New(CodeMalformedRecord)
}
