package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rupeeview/portfolio-backend/internal/apperrors"
	"github.com/rupeeview/portfolio-backend/internal/ingest"
	"github.com/rupeeview/portfolio-backend/internal/repository"
)

// UploadSummary aggregates row counts for the preview response.
type UploadSummary struct {
	TotalRows          int     `json:"totalRows"`
	ValidRows          int     `json:"validRows"`
	SkippedRows        int     `json:"skippedRows"`
	TotalInvestedValue float64 `json:"totalInvestedValue"`
}

// UploadPreview is the dry-run response: everything the pipeline derived,
// nothing persisted.
type UploadPreview struct {
	Holdings        []ingest.ParsedHolding   `json:"holdings"`
	Summary         UploadSummary            `json:"summary"`
	Warnings        []string                 `json:"warnings"`
	DetectedColumns map[ingest.Field]*string `json:"detectedColumns"`
	Detections      []ingest.AssetDetection  `json:"detections,omitempty"`
}

// ConfirmResult is the persist response.
type ConfirmResult struct {
	HoldingsCreated int      `json:"holdingsCreated"`
	HoldingsUpdated int      `json:"holdingsUpdated"`
	AssetsCreated   int      `json:"assetsCreated"`
	Warnings        []string `json:"warnings,omitempty"`
}

// IngestService orchestrates the upload pipeline: read, detect columns,
// classify, normalize, group — then, on confirm only, reconcile and recompute
// metrics under a per-portfolio lock.
type IngestService struct {
	portfolioRepo *repository.PortfolioRepository
	reconcile     *ReconcileService
	metrics       *MetricsService
	opts          ingest.Options
	maxFileBytes  int64
	rejectRatio   float64
	warnRatio     float64
	logger        zerolog.Logger

	// Serializes the merge-and-recompute sequence per portfolio: the
	// weighted-average merge is a read-then-write on the holding row, so two
	// concurrent uploads racing on the same asset would corrupt the average.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewIngestService creates a new IngestService with the provided dependencies.
func NewIngestService(
	portfolioRepo *repository.PortfolioRepository,
	reconcile *ReconcileService,
	metrics *MetricsService,
	opts ingest.Options,
	maxFileBytes int64,
	rejectRatio, warnRatio float64,
	logger zerolog.Logger,
) *IngestService {
	if maxFileBytes <= 0 {
		maxFileBytes = ingest.DefaultMaxFileBytes
	}
	if rejectRatio <= 0 {
		rejectRatio = ingest.DefaultRejectRatio
	}
	if warnRatio <= 0 {
		warnRatio = ingest.DefaultWarnRatio
	}
	return &IngestService{
		portfolioRepo: portfolioRepo,
		reconcile:     reconcile,
		metrics:       metrics,
		opts:          opts,
		maxFileBytes:  maxFileBytes,
		rejectRatio:   rejectRatio,
		warnRatio:     warnRatio,
		logger:        logger.With().Str("module", "ingest").Logger(),
		locks:         map[string]*sync.Mutex{},
	}
}

// pipelineOutput carries the shared stages between preview and confirm.
type pipelineOutput struct {
	mapping    ingest.ColumnMapping
	detections []ingest.AssetDetection
	gate       ingest.GateResult
	holdings   []ingest.ParsedHolding
	groups     []ingest.GroupedHolding
	skipped    []ingest.ParsedHolding
	warnings   []string
}

// runPipeline executes the pure in-memory stages over an uploaded file.
func (s *IngestService) runPipeline(filename string, r io.Reader) (pipelineOutput, error) {
	out := pipelineOutput{}

	sheet, err := ingest.ReadSheet(filename, r, s.maxFileBytes)
	if err != nil {
		return out, err
	}

	out.mapping = ingest.DetectColumns(sheet.Headers, sheet.Rows)
	for _, ignored := range out.mapping.Ignored {
		out.warnings = append(out.warnings, "ignored column "+ignored.Header+": "+ignored.Reason)
	}

	out.detections, out.gate = ingest.ClassifyRows(sheet.Rows, out.mapping)
	if out.gate.ShouldReject(s.rejectRatio) {
		return out, apperrors.ErrAmbiguousClassification
	}
	if out.gate.ShouldWarn(s.warnRatio, s.rejectRatio) {
		out.warnings = append(out.warnings, out.gate.WarningForGate())
	}

	out.holdings = ingest.NormalizeRows(sheet.Rows, out.mapping, out.detections, s.opts)
	out.groups, out.skipped = ingest.GroupHoldings(out.holdings)
	for _, h := range out.skipped {
		out.warnings = append(out.warnings, rowWarning(h))
	}

	return out, nil
}

// Preview runs the pipeline without persisting anything.
func (s *IngestService) Preview(filename string, r io.Reader) (UploadPreview, error) {
	out, err := s.runPipeline(filename, r)
	if err != nil {
		return UploadPreview{}, err
	}

	preview := UploadPreview{
		Holdings:        out.holdings,
		Warnings:        warningsOrEmpty(out.warnings),
		DetectedColumns: detectedColumns(out.mapping),
		Detections:      out.detections,
	}
	preview.Summary.TotalRows = len(out.holdings)
	for _, h := range out.holdings {
		if h.IsValid {
			preview.Summary.ValidRows++
			preview.Summary.TotalInvestedValue += h.InvestedValue
		} else {
			preview.Summary.SkippedRows++
		}
	}
	return preview, nil
}

// Confirm runs the pipeline and persists the grouped positions, then
// recomputes the portfolio's metrics, all under the portfolio's lock.
func (s *IngestService) Confirm(ctx context.Context, portfolioID, filename string, r io.Reader, source string) (ConfirmResult, error) {
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return ConfirmResult{}, err
	}

	out, err := s.runPipeline(filename, r)
	if err != nil {
		return ConfirmResult{}, err
	}

	lock := s.portfolioLock(portfolioID)
	lock.Lock()
	defer lock.Unlock()

	recon, err := s.reconcile.Reconcile(ctx, portfolioID, out.groups, source)
	if err != nil {
		return ConfirmResult{}, err
	}

	if _, err := s.metrics.Recompute(portfolioID); err != nil {
		return ConfirmResult{}, err
	}

	result := ConfirmResult{
		HoldingsCreated: recon.HoldingsCreated,
		HoldingsUpdated: recon.HoldingsUpdated,
		AssetsCreated:   recon.AssetsCreated,
		Warnings:        append(out.warnings, recon.Warnings...),
	}
	s.logger.Info().
		Str("portfolio", portfolioID).
		Int("created", result.HoldingsCreated).
		Int("updated", result.HoldingsUpdated).
		Int("assets", result.AssetsCreated).
		Int("warnings", len(result.Warnings)).
		Msg("upload reconciled")
	return result, nil
}

func (s *IngestService) portfolioLock(portfolioID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[portfolioID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[portfolioID] = lock
	}
	return lock
}

func detectedColumns(mapping ingest.ColumnMapping) map[ingest.Field]*string {
	columns := make(map[ingest.Field]*string, len(ingest.AllFields))
	for _, f := range ingest.AllFields {
		if fm := mapping.Fields[f]; fm != nil {
			header := fm.Header
			columns[f] = &header
		} else {
			columns[f] = nil
		}
	}
	return columns
}

func rowWarning(h ingest.ParsedHolding) string {
	name := h.Name
	if name == "" {
		name = h.Symbol
	}
	if name == "" {
		name = h.Isin
	}
	if name == "" {
		name = "unidentified"
	}
	return fmt.Sprintf("row %d (%s) skipped: %s", h.RowIndex+1, name, h.ValidationNote)
}

func warningsOrEmpty(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}
