package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/infrastructure/export"
	"github.com/catalogrecon/backend/internal/infrastructure/logger"
	"github.com/catalogrecon/backend/internal/infrastructure/storage"
	"github.com/catalogrecon/backend/internal/interfaces/http/dto"
	"github.com/catalogrecon/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Multipart form field names
const (
	FormMain  = "main"
	FormCost  = "cost"
	FormStock = "stock"
	FormFile  = "file"
)

// AnalysisDefaults are used when a request leaves a value out
type AnalysisDefaults struct {
	ShippingPerUnit float64
	MiscPerUnit     float64
	Budget          decimal.Decimal
}

// Archiver uploads a finished analysis somewhere durable
type Archiver interface {
	Archive(ctx context.Context, snap *analysis.Snapshot) (*storage.ArchivedReport, error)
}

// AnalysisHandler serves catalog analyses
type AnalysisHandler struct {
	BaseHandler
	service  *analysis.Service
	defaults AnalysisDefaults
	results  analysis.ResultStore
	archiver Archiver
}

// AnalysisOption configures an AnalysisHandler
type AnalysisOption func(*AnalysisHandler)

// WithResultStore keeps every finished analysis for the GET endpoints
func WithResultStore(store analysis.ResultStore) AnalysisOption {
	return func(h *AnalysisHandler) {
		h.results = store
	}
}

// WithArchiver uploads every finished analysis
func WithArchiver(a Archiver) AnalysisOption {
	return func(h *AnalysisHandler) {
		h.archiver = a
	}
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service *analysis.Service, defaults AnalysisDefaults, opts ...AnalysisOption) *AnalysisHandler {
	h := &AnalysisHandler{service: service, defaults: defaults}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Analyze runs one analysis over uploaded files.
// Form: one or more "main" files, optional "cost" and "stock" files, and
// the AnalysisRequest fields. ?format=csv returns the report as CSV.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleFormError(c, err)
		return
	}
	var req dto.AnalysisRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	mains := form.File[FormMain]
	if len(mains) == 0 {
		h.BadRequest(c, "at least one main catalog file is required")
		return
	}

	overrides, err := parseOverrides(req.Overrides)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	budget := h.defaults.Budget
	if req.Budget != "" {
		budget, err = decimal.NewFromString(req.Budget)
		if err != nil {
			h.BadRequest(c, "budget must be a decimal number")
			return
		}
	}

	files := analysis.FileSet{
		ShippingPerUnit: req.ShippingPerUnit,
		MiscPerUnit:     req.MiscPerUnit,
	}
	if _, ok := c.GetPostForm("shipping_per_unit"); !ok {
		files.ShippingPerUnit = h.defaults.ShippingPerUnit
	}
	if _, ok := c.GetPostForm("misc_per_unit"); !ok {
		files.MiscPerUnit = h.defaults.MiscPerUnit
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	open := func(fh *multipart.FileHeader) (*analysis.NamedReader, error) {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		return &analysis.NamedReader{Name: fh.Filename, Reader: f, Overrides: overrides[fh.Filename]}, nil
	}

	for _, fh := range mains {
		nr, err := open(fh)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		files.Main = append(files.Main, *nr)
	}
	if fhs := form.File[FormCost]; len(fhs) > 0 {
		if files.Cost, err = open(fhs[0]); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}
	if fhs := form.File[FormStock]; len(fhs) > 0 {
		if files.Stock, err = open(fhs[0]); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	files.Progress = func(percent int, message string, stats *analysis.LiveStats) {
		fields := []zap.Field{zap.Int("percent", percent), zap.String("message", message)}
		if stats != nil {
			fields = append(fields, zap.Any("stats", stats))
		}
		log.Debug("Analysis progress", fields...)
	}

	res, err := h.service.AnalyzeFiles(ctx, files)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var order *catalog.Order
	if budget.IsPositive() {
		order, err = h.service.BuildOrder(ctx, res.Records, budget)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	snap := &analysis.Snapshot{Result: res, Order: order, CreatedAt: time.Now().UTC()}
	archived := h.keep(ctx, snap)

	if c.Query("format") == "csv" {
		h.writeReport(c, snap)
		return
	}
	resp := dto.NewAnalysisResponse(res, order)
	resp.CreatedAt = &snap.CreatedAt
	resp.Archive = archived
	h.Success(c, resp)
}

// keep stores and archives a finished analysis. Failures are logged and
// never fail the request that produced the result.
func (h *AnalysisHandler) keep(ctx context.Context, snap *analysis.Snapshot) *dto.ArchiveResponse {
	log := logger.FromContext(ctx).With(zap.String("analysis_id", snap.Result.ID.String()))
	if h.results != nil {
		if err := h.results.Save(ctx, snap); err != nil {
			log.Warn("Failed to store analysis result", zap.Error(err))
		}
	}
	if h.archiver == nil {
		return nil
	}
	out, err := h.archiver.Archive(ctx, snap)
	if err != nil {
		log.Warn("Failed to archive analysis report", zap.Error(err))
		return nil
	}
	return &dto.ArchiveResponse{ReportURL: out.ReportURL, OrderURL: out.OrderURL, ExpiresAt: out.ExpiresAt}
}

// GetAnalysis returns a stored analysis as JSON
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}
	resp := dto.NewAnalysisResponse(snap.Result, snap.Order)
	resp.CreatedAt = &snap.CreatedAt
	h.Success(c, resp)
}

// GetReport returns a stored analysis as a CSV report
func (h *AnalysisHandler) GetReport(c *gin.Context) {
	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}
	h.writeReport(c, snap)
}

// GetOrder returns the purchase order of a stored analysis as CSV
func (h *AnalysisHandler) GetOrder(c *gin.Context) {
	snap, ok := h.loadSnapshot(c)
	if !ok {
		return
	}
	if snap.Order == nil {
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "analysis has no purchase order; run it with a budget")
		return
	}

	setAttachment(c, fmt.Sprintf("order-%s.csv", snap.Result.ID))
	if err := export.NewCSVWriter(c.Writer).WriteOrder(c.Request.Context(), snap.Order); err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to write CSV order", zap.Error(err))
		_ = c.Error(err)
	}
}

func (h *AnalysisHandler) loadSnapshot(c *gin.Context) (*analysis.Snapshot, bool) {
	if h.results == nil {
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "analysis results are not stored on this server")
		return nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "analysis id must be a UUID")
		return nil, false
	}
	snap, err := h.results.Load(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return snap, true
}

func (h *AnalysisHandler) writeReport(c *gin.Context, snap *analysis.Snapshot) {
	res := snap.Result
	setAttachment(c, fmt.Sprintf("analysis-%s.csv", snap.CreatedAt.UTC().Format("20060102-150405")))

	w := export.NewCSVWriter(c.Writer)
	if err := w.WriteRecords(c.Request.Context(), res.Records, res.ExtraColumns, res.Annotations); err != nil {
		// Headers are already sent; the truncated body is all we can do
		logger.FromContext(c.Request.Context()).Error("Failed to write CSV report", zap.Error(err))
		_ = c.Error(err)
	}
}

func setAttachment(c *gin.Context, name string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
}

// DetectColumns reports how an uploaded file's headers map to the
// standard fields of a role, so gaps can be fixed before a run.
func (h *AnalysisHandler) DetectColumns(c *gin.Context) {
	fh, err := c.FormFile(FormFile)
	if err != nil {
		h.handleFormError(c, err)
		return
	}
	var req dto.DetectColumnsRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	role := req.Role
	if role == "" {
		role = analysis.RoleMain
	}
	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "cannot open uploaded file")
		return
	}
	defer f.Close()

	tm, err := h.service.DetectColumns(c.Request.Context(), role, analysis.NamedReader{Name: fh.Filename, Reader: f})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tm)
}

// Patterns lists the header aliases in use
func (h *AnalysisHandler) Patterns(c *gin.Context) {
	h.Success(c, dto.NewPatternsResponse(h.service.Pipeline().Patterns()))
}

func (h *AnalysisHandler) handleFormError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.HandleError(c, err)
		return
	}
	if errors.Is(err, http.ErrMissingFile) {
		h.BadRequest(c, "a file upload is required")
		return
	}
	h.BadRequest(c, "invalid multipart form")
}

// parseOverrides decodes {"file.csv": {"imported_code": "Vendor SKU"}}.
// Field keys may be config keys or labels.
func parseOverrides(raw string) (map[string]map[catalog.StandardField]string, error) {
	if raw == "" {
		return nil, nil
	}
	var decoded map[string]map[string]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("overrides must be a JSON object of file name to field mapping: %w", err)
	}
	out := make(map[string]map[catalog.StandardField]string, len(decoded))
	for file, fields := range decoded {
		m := make(map[catalog.StandardField]string, len(fields))
		for key, header := range fields {
			f, ok := catalog.ParseField(key)
			if !ok {
				return nil, fmt.Errorf("overrides for %s: unknown field %q", file, key)
			}
			m[f] = header
		}
		out[file] = m
	}
	return out, nil
}
