package dto

import (
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/catalog"
)

// AnalysisRequest holds the non-file form fields of an analysis upload
type AnalysisRequest struct {
	ShippingPerUnit float64 `form:"shipping_per_unit" binding:"gte=0"`
	MiscPerUnit     float64 `form:"misc_per_unit" binding:"gte=0"`
	// Budget is a decimal string; empty or zero skips order building
	Budget string `form:"budget" binding:"omitempty,decimal"`
	// Overrides is a JSON object of file name -> field key -> header
	Overrides string `form:"overrides"`
}

// FileErrorResponse describes an input file that could not be parsed
type FileErrorResponse struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalysisResponse is the result of an analysis upload
type AnalysisResponse struct {
	ID           string                          `json:"id"`
	DurationMS   int64                           `json:"duration_ms"`
	Stats        analysis.LiveStats              `json:"stats"`
	Mappings     []analysis.TableMapping         `json:"mappings"`
	ExtraColumns []string                        `json:"extra_columns"`
	FileErrors   []FileErrorResponse             `json:"file_errors,omitempty"`
	Records      []*catalog.ProductRecord        `json:"records"`
	Annotations  map[string][]catalog.Annotation `json:"annotations,omitempty"`
	Order        *catalog.Order                  `json:"order,omitempty"`
	CreatedAt    *time.Time                      `json:"created_at,omitempty"`
	Archive      *ArchiveResponse                `json:"archive,omitempty"`
}

// ArchiveResponse links to the uploaded copies of a report
type ArchiveResponse struct {
	ReportURL string    `json:"report_url"`
	OrderURL  string    `json:"order_url,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAnalysisResponse converts a pipeline result
func NewAnalysisResponse(res *analysis.Result, order *catalog.Order) AnalysisResponse {
	resp := AnalysisResponse{
		ID:           res.ID.String(),
		DurationMS:   res.Duration.Milliseconds(),
		Stats:        res.Stats,
		Mappings:     res.Mappings,
		ExtraColumns: res.ExtraColumns,
		Records:      res.Records,
		Order:        order,
	}
	for _, fe := range res.FileErrors {
		resp.FileErrors = append(resp.FileErrors, FileErrorResponse{
			File:    fe.File,
			Code:    fe.Code(),
			Message: fe.Err.Error(),
		})
	}
	if res.Annotations != nil && res.Annotations.Len() > 0 {
		resp.Annotations = make(map[string][]catalog.Annotation, res.Annotations.Len())
		for id, list := range res.Annotations.All() {
			resp.Annotations[id.String()] = list
		}
	}
	return resp
}

// DetectColumnsRequest selects which alias table a header row is matched against
type DetectColumnsRequest struct {
	Role string `form:"role" binding:"omitempty,oneof=main cost stock"`
}

// PatternsResponse lists the header aliases accepted per role
type PatternsResponse struct {
	Main  map[string][]string `json:"main"`
	Cost  map[string][]string `json:"cost"`
	Stock map[string][]string `json:"stock"`
}

func patternMap(table catalog.PatternTable) map[string][]string {
	out := make(map[string][]string, len(table))
	for _, fp := range table {
		out[string(fp.Field)] = append([]string(nil), fp.Aliases...)
	}
	return out
}

// NewPatternsResponse converts the pipeline's alias tables
func NewPatternsResponse(p analysis.Patterns) PatternsResponse {
	return PatternsResponse{
		Main:  patternMap(p.Main),
		Cost:  patternMap(p.Cost),
		Stock: patternMap(p.Stock),
	}
}
