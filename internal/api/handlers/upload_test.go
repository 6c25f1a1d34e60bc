package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rupeeview/portfolio-backend/internal/api/handlers"
	"github.com/rupeeview/portfolio-backend/internal/ingest"
	"github.com/rupeeview/portfolio-backend/internal/repository"
	"github.com/rupeeview/portfolio-backend/internal/service"
	"github.com/rupeeview/portfolio-backend/internal/testutil"
)

const fundCSV = "Scheme Name,Units,Invested Amount\n" +
	"ICICI Prudential Innovation Growth Direct Plan,100,50000\n"

// WHY: the preview endpoint is the two-step upload's first half: full
// pipeline output, nothing persisted, detected columns reported per field.
func TestUploadPreview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewUploadHandler(testutil.NewTestIngestService(t, db, nil), ingest.DefaultMaxFileBytes)

	req := testutil.NewMultipartUpload(t, http.MethodPost, "/api/portfolio/p1/holdings/upload",
		"holdings.csv", []byte(fundCSV), map[string]string{"portfolioID": "p1"})
	rec := httptest.NewRecorder()
	handler.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var preview service.UploadPreview
	if err := json.NewDecoder(rec.Body).Decode(&preview); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if preview.Summary.ValidRows != 1 {
		t.Errorf("valid rows = %d, want 1", preview.Summary.ValidRows)
	}
	if len(preview.Holdings) != 1 || preview.Holdings[0].AveragePrice != 500 {
		t.Errorf("holdings = %+v, want one row with derived price 500", preview.Holdings)
	}
}

// WHY: unsupported extensions are refused before the file is parsed.
func TestUploadPreviewRejectsUnsupportedExtension(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewUploadHandler(testutil.NewTestIngestService(t, db, nil), ingest.DefaultMaxFileBytes)

	req := testutil.NewMultipartUpload(t, http.MethodPost, "/api/portfolio/p1/holdings/upload",
		"holdings.pdf", []byte("%PDF-1.4"), map[string]string{"portfolioID": "p1"})
	rec := httptest.NewRecorder()
	handler.Preview(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400; body: %s", rec.Code, rec.Body.String())
	}
}

// WHY: the confirm endpoint persists and reports the reconciliation counts.
func TestUploadConfirm(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewUploadHandler(testutil.NewTestIngestService(t, db, nil), ingest.DefaultMaxFileBytes)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Retirement", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	req := testutil.NewMultipartUpload(t, http.MethodPost, "/api/portfolio/"+portfolio.ID+"/holdings/upload/confirm",
		"holdings.csv", []byte(fundCSV), map[string]string{"portfolioID": portfolio.ID})
	rec := httptest.NewRecorder()
	handler.Confirm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var result service.ConfirmResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.HoldingsCreated != 1 || result.AssetsCreated != 1 {
		t.Errorf("result = %+v, want 1 holding and 1 asset created", result)
	}
}

// WHY: confirming against a missing portfolio is a 404, not a write.
func TestUploadConfirmUnknownPortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewUploadHandler(testutil.NewTestIngestService(t, db, nil), ingest.DefaultMaxFileBytes)

	req := testutil.NewMultipartUpload(t, http.MethodPost, "/api/portfolio/00000000-0000-0000-0000-000000000000/holdings/upload/confirm",
		"holdings.csv", []byte(fundCSV), map[string]string{"portfolioID": "00000000-0000-0000-0000-000000000000"})
	rec := httptest.NewRecorder()
	handler.Confirm(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404; body: %s", rec.Code, rec.Body.String())
	}
}

// WHY: the ambiguity gate surfaces as 422 with guidance naming the columns
// that would fix the file.
func TestUploadConfirmAmbiguousFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewUploadHandler(testutil.NewTestIngestService(t, db, nil), ingest.DefaultMaxFileBytes)

	portfolio, err := repository.NewPortfolioRepository(db).Insert("Mixed", "")
	if err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}

	csv := "Name,Quantity,Avg Price\n" +
		"Some Random Unclassifiable Security One,10,100\n" +
		"Another Random Unclassifiable Security Two,20,50\n"
	req := testutil.NewMultipartUpload(t, http.MethodPost, "/api/portfolio/"+portfolio.ID+"/holdings/upload/confirm",
		"odd.csv", []byte(csv), map[string]string{"portfolioID": portfolio.ID})
	rec := httptest.NewRecorder()
	handler.Confirm(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Details) == 0 {
		t.Errorf("want remediation guidance in the response details")
	}
}
