package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки транзакций и хранилищ
	ErrLookupFailed         = errors.New("product lookup failed")
	ErrSchemaMismatch       = errors.New("schema version mismatch")
	ErrIncorrectEnvVariable = errors.New("incorrect environment variable")

	// 400 Bad Request
	ErrStatusBadRequest  = errors.New("bad request")
	ErrExpectedMultipart = errors.New("expected multipart/form-data")
	ErrMissingFields     = errors.New("barcode, name, price and image are required")
	ErrBarcodeRequired   = errors.New("barcode is required")
	ErrClientIDRequired  = errors.New("client id is required")
	ErrInvalidPrice      = errors.New("price must be a non-negative number")
	ErrPricePrecision    = errors.New("price must have at most 2 decimal places")
	ErrInvalidID         = errors.New("invalid product id")
	ErrInvalidPaging     = errors.New("invalid limit or offset")
	ErrInvalidFrame      = errors.New("frame is not a decodable image")
	ErrUnknownFacingMode = errors.New("unknown camera facing mode")

	// 403 Forbidden
	ErrInsecureContext = errors.New("camera capture needs a secure context: use HTTPS/localhost")

	// 404 Not Found
	ErrProductNotFound = errors.New("product not found")
	ErrSessionNotFound = errors.New("scan session not found")

	// 409 Conflict
	ErrDuplicateBarcode       = errors.New("barcode is already registered")
	ErrRegistrationInProgress = errors.New("registration for this barcode is already in progress")
	ErrSessionClosed          = errors.New("scan session is closed")
	ErrInvalidTransition      = errors.New("invalid scan state transition")

	// 413 / 415 / 422 / 429
	ErrFileTooLarge         = errors.New("image must be smaller than 2MB")
	ErrFrameTooLarge        = errors.New("frame is too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrNoCodeFound          = errors.New("no barcode found in image")
	ErrFrameRateExceeded    = errors.New("too many frames, slow down")

	// 503 Service Unavailable
	ErrCameraUnavailable  = errors.New("camera unavailable: check permissions and device")
	ErrDecoderUnavailable = errors.New("barcode decoder unavailable")
	ErrLocalStoreDisabled = errors.New("local store is disabled")

	// 500
	ErrInternalServerError = errors.New("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
