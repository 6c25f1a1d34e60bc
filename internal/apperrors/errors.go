// Package apperrors defines the sentinel errors shared across the ingestion
// pipeline, services, and handlers. The taxonomy follows four severities:
// fatal input errors abort a request before processing, classification
// rejection aborts after classification, row errors are recovered locally as
// warnings, and external lookup misses always degrade to a fallback.
package apperrors

import "errors"

// Fatal input errors abort the request before any processing and surface as
// a 4xx with a user-actionable message.
var (
	// ErrFileUnreadable indicates the uploaded file could not be decoded.
	ErrFileUnreadable = errors.New("file could not be read")

	// ErrUnsupportedFileType indicates an extension other than csv/xls/xlsx.
	ErrUnsupportedFileType = errors.New("unsupported file type; upload a CSV, XLS or XLSX file")

	// ErrFileTooLarge indicates the upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")

	// ErrEmptyFile indicates a file with no header row or no data rows.
	ErrEmptyFile = errors.New("file contains no data rows")

	// ErrMissingPortfolioContext indicates the request carries no valid
	// portfolio identity.
	ErrMissingPortfolioContext = errors.New("portfolio context is required")
)

// ErrAmbiguousClassification aborts an upload after classification but
// before reconciliation, when the ambiguity gate trips. Surfaced with
// required-column guidance.
var ErrAmbiguousClassification = errors.New("too many rows could not be classified")

// Domain entity errors indicate a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrAssetNotFound indicates that an asset lookup returned no results.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrHoldingNotFound indicates that a holding with the given key does not exist.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrMetricsNotFound indicates metrics have not been calculated for the portfolio.
	ErrMetricsNotFound = errors.New("portfolio metrics not found")

	// ErrSchemeNotFound indicates a scheme-master lookup returned no results.
	ErrSchemeNotFound = errors.New("scheme not found")

	// ErrProviderSettingsNotFound indicates the market-data provider has not been configured.
	ErrProviderSettingsNotFound = errors.New("provider settings not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrReturnsNotComputable indicates the cash flows cannot produce an XIRR
	// (fewer than two flows, or no sign change).
	ErrReturnsNotComputable = errors.New("returns not computable from available cash flows")
)
