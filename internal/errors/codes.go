// Package errors provides structured error handling for askdoc.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration and credential errors
//   - 2XX: Document extraction errors
//   - 3XX: Hosted backend errors (embedding, generation)
//   - 4XX: Index and query validation errors
//   - 5XX: Persistence and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration or credential errors.
	CategoryConfig Category = "CONFIG"
	// CategoryExtract indicates document text extraction errors.
	CategoryExtract Category = "EXTRACT"
	// CategoryBackend indicates hosted model backend errors.
	CategoryBackend Category = "BACKEND"
	// CategoryQuery indicates index and query validation errors.
	CategoryQuery Category = "QUERY"
	// CategoryPersist indicates persistence and internal errors.
	CategoryPersist Category = "PERSIST"
)

// Error codes organized by category.
const (
	// Configuration and credential errors (100-199)
	ErrCodeMissingAPIKey = "ERR_101_MISSING_API_KEY"
	ErrCodeInvalidConfig = "ERR_102_INVALID_CONFIG"

	// Extraction errors (200-299)
	ErrCodePDFRead = "ERR_201_PDF_READ"
	ErrCodeNoText  = "ERR_202_NO_TEXT"

	// Hosted backend errors (300-399)
	ErrCodeEmbedBackend    = "ERR_301_EMBED_BACKEND"
	ErrCodeGenerateBackend = "ERR_302_GENERATE_BACKEND"

	// Index and query validation errors (400-499)
	ErrCodeEmptyIndex        = "ERR_401_EMPTY_INDEX"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeAlignment         = "ERR_403_ALIGNMENT"
	ErrCodeBadQuery          = "ERR_404_BAD_QUERY"

	// Persistence and internal errors (500-599)
	ErrCodePersist  = "ERR_501_PERSIST"
	ErrCodeInternal = "ERR_502_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryPersist
	}

	// Numeric portion, e.g. "101" from "ERR_101_MISSING_API_KEY"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryExtract
	case '3':
		return CategoryBackend
	case '4':
		return CategoryQuery
	default:
		return CategoryPersist
	}
}
