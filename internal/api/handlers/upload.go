package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rupeeview/portfolio-backend/internal/service"
	"github.com/rupeeview/portfolio-backend/internal/validation"
)

// UploadHandler handles holdings spreadsheet uploads: a dry-run preview and
// the persisting confirm.
type UploadHandler struct {
	ingestService *service.IngestService
	maxFileBytes  int64
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(ingestService *service.IngestService, maxFileBytes int64) *UploadHandler {
	return &UploadHandler{
		ingestService: ingestService,
		maxFileBytes:  maxFileBytes,
	}
}

// Preview handles POST /api/portfolio/{portfolioID}/holdings/upload.
// Runs the full parse/detect/classify/normalize pipeline and returns what
// would be ingested, persisting nothing.
func (h *UploadHandler) Preview(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	preview, err := h.ingestService.Preview(filename, file)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// Confirm handles POST /api/portfolio/{portfolioID}/holdings/upload/confirm.
// Re-runs the pipeline on the submitted file and persists the result.
func (h *UploadHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "portfolioID")

	file, filename, ok := h.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.ingestService.Confirm(r.Context(), portfolioID, filename, file, filename)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// openUpload extracts the multipart "file" part and validates its name. On
// failure it writes the error response and returns ok=false.
func (h *UploadHandler) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	if err := r.ParseMultipartForm(h.maxFileBytes); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "could not parse multipart form; upload the spreadsheet as form field \"file\""})
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "form field \"file\" is required"})
		return nil, "", false
	}

	if err := validation.ValidateUploadFilename(header.Filename); err != nil {
		file.Close()
		respondServiceError(w, err)
		return nil, "", false
	}

	return file, header.Filename, true
}
