package validation

import (
	"path/filepath"
	"strings"
)

// allowedUploadExtensions lists the spreadsheet formats the reader decodes.
var allowedUploadExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// ValidateUploadFilename checks the upload's extension before any bytes are
// read, so an unsupported format fails fast with a clear message.
func ValidateUploadFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return &Error{Fields: map[string]string{
			"file": "unsupported file type " + ext + "; upload a .csv, .xlsx or .xls file",
		}}
	}
	return nil
}
