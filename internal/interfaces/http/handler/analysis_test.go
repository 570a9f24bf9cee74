package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/domain/catalog"
	strategyinfra "github.com/catalogrecon/backend/internal/infrastructure/strategy"
	"github.com/catalogrecon/backend/internal/interfaces/http/dto"
	"github.com/catalogrecon/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	profitableCatalog = "ASIN,Parent,Title,Sales Rank,Buy Box\nA1,P1,T1,50000,$40.00\n"
	profitableCost    = "UPC,Cost,MSRP\nA1,10.00,50.00\n"
)

type upload struct {
	field, name, body string
}

func multipartBody(t *testing.T, fields map[string]string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newAnalysisRouter(t *testing.T, defaults AnalysisDefaults, opts ...AnalysisOption) *gin.Engine {
	t.Helper()
	strategies, err := strategyinfra.NewRegistryWithDefaults()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	svc := analysis.NewService(analysis.NewPipeline(strategies, log), 0, log)
	h := NewAnalysisHandler(svc, defaults, opts...)

	middleware.SetupValidator()
	router := gin.New()
	router.Use(middleware.RequestID())
	router.POST("/analyses", h.Analyze)
	router.GET("/analyses/:id", h.GetAnalysis)
	router.GET("/analyses/:id/report", h.GetReport)
	router.GET("/analyses/:id/order", h.GetOrder)
	router.POST("/columns/detect", h.DetectColumns)
	router.GET("/patterns", h.Patterns)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func post(router *gin.Engine, ctx context.Context, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body).WithContext(ctx)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type analysisEnvelope struct {
	Success bool                 `json:"success"`
	Data    dto.AnalysisResponse `json:"data"`
	Error   *dto.ErrorInfo       `json:"error"`
}

func decodeAnalysis(t *testing.T, w *httptest.ResponseRecorder) analysisEnvelope {
	t.Helper()
	var env analysisEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{})

	body, ct := multipartBody(t,
		map[string]string{"shipping_per_unit": "0", "misc_per_unit": "0", "budget": "25"},
		upload{FormMain, "catalog.csv", profitableCatalog},
		upload{FormCost, "cost.csv", profitableCost},
	)
	w := post(router, context.Background(), "/analyses", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeAnalysis(t, w)
	assert.True(t, env.Success)
	require.Len(t, env.Data.Records, 1)
	r := env.Data.Records[0]
	assert.True(t, r.CostMatched)
	assert.InDelta(t, 17.0, r.Profit, 1e-9)
	assert.Equal(t, 1, env.Data.Stats.Profitable)
	assert.NotEmpty(t, env.Data.ID)

	require.NotNil(t, env.Data.Order)
	assert.Equal(t, int64(2), env.Data.Order.TotalUnits)
	assert.True(t, env.Data.Order.Spent.Equal(decimal.NewFromInt(20)))
	assert.True(t, env.Data.Order.Remaining.Equal(decimal.NewFromInt(5)))
}

func TestAnalysisHandler_Defaults(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{ShippingPerUnit: 1, MiscPerUnit: 0.5})

	body, ct := multipartBody(t, nil,
		upload{FormMain, "catalog.csv", profitableCatalog},
		upload{FormCost, "cost.csv", profitableCost},
	)
	w := post(router, context.Background(), "/analyses", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeAnalysis(t, w)
	require.Len(t, env.Data.Records, 1)
	assert.InDelta(t, 11.5, env.Data.Records[0].Cost, 1e-9)
	assert.Nil(t, env.Data.Order)
}

func TestAnalysisHandler_Overrides(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{})

	overrides := `{"catalog.csv": {"imported_code": "Vendor SKU"}}`
	body, ct := multipartBody(t,
		map[string]string{"overrides": overrides},
		upload{FormMain, "catalog.csv", "ASIN,Vendor SKU,Buy Box\nA1,X1,$40.00\n"},
		upload{FormCost, "cost.csv", "UPC,Cost\nX1,10.00\n"},
	)
	w := post(router, context.Background(), "/analyses", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeAnalysis(t, w)
	require.Len(t, env.Data.Records, 1)
	assert.Equal(t, "X1", env.Data.Records[0].ImportedCode)
	assert.True(t, env.Data.Records[0].CostMatched)
	assert.Equal(t, "Vendor SKU", env.Data.Mappings[0].Mapping[catalog.FieldImportedCode.String()])
}

func TestAnalysisHandler_CSV(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{})

	body, ct := multipartBody(t, nil, upload{FormMain, "catalog.csv", profitableCatalog})
	w := post(router, context.Background(), "/analyses?format=csv", body, ct)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Brand,Parent,ASIN"))
}

func TestAnalysisHandler_Rejects(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{})

	tests := []struct {
		name   string
		fields map[string]string
		files  []upload
		status int
		code   string
	}{
		{
			name:   "no main file",
			files:  []upload{{FormCost, "cost.csv", profitableCost}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeBadRequest,
		},
		{
			name:   "negative shipping",
			fields: map[string]string{"shipping_per_unit": "-1"},
			files:  []upload{{FormMain, "catalog.csv", profitableCatalog}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "malformed overrides",
			fields: map[string]string{"overrides": "{not json"},
			files:  []upload{{FormMain, "catalog.csv", profitableCatalog}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeBadRequest,
		},
		{
			name:   "unknown override field",
			fields: map[string]string{"overrides": `{"catalog.csv": {"warp_speed": "X"}}`},
			files:  []upload{{FormMain, "catalog.csv", profitableCatalog}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeBadRequest,
		},
		{
			name:   "non-numeric budget",
			fields: map[string]string{"budget": "lots"},
			files:  []upload{{FormMain, "catalog.csv", profitableCatalog}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name:   "no readable catalog",
			files:  []upload{{FormMain, "empty.csv", ""}},
			status: http.StatusUnprocessableEntity,
			code:   dto.ErrCodeNoMainTables,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.files...)
			w := post(router, context.Background(), "/analyses", body, ct)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			env := decodeAnalysis(t, w)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	t.Run("not multipart", func(t *testing.T) {
		w := post(router, context.Background(), "/analyses", bytes.NewBufferString("{}"), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAnalysisHandler_Cancelled(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body, ct := multipartBody(t, nil, upload{FormMain, "catalog.csv", profitableCatalog})
	w := post(router, ctx, "/analyses", body, ct)

	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	env := decodeAnalysis(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeCancelled, env.Error.Code)
}

func TestAnalysisHandler_DetectColumns(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{})

	t.Run("cost role", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string]string{"role": "cost"},
			upload{FormFile, "supplier.csv", "Item Code,Wholesale\nA1,3\n"},
		)
		w := post(router, context.Background(), "/columns/detect", body, ct)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var env struct {
			Success bool                  `json:"success"`
			Data    analysis.TableMapping `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, analysis.RoleCost, env.Data.Role)
		assert.Equal(t, "supplier.csv", env.Data.Source)
		assert.Equal(t, 1, env.Data.Rows)
	})

	t.Run("unknown role", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string]string{"role": "price"},
			upload{FormFile, "supplier.csv", "Item Code\nA1\n"},
		)
		w := post(router, context.Background(), "/columns/detect", body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"role": "main"})
		w := post(router, context.Background(), "/columns/detect", body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unreadable file", func(t *testing.T) {
		body, ct := multipartBody(t, nil, upload{FormFile, "empty.csv", ""})
		w := post(router, context.Background(), "/columns/detect", body, ct)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAnalysisHandler_Patterns(t *testing.T) {
	router := newAnalysisRouter(t, AnalysisDefaults{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patterns", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Data dto.PatternsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Contains(t, env.Data.Main[catalog.FieldASIN.String()], "ASIN")
	assert.NotEmpty(t, env.Data.Cost)
	assert.NotEmpty(t, env.Data.Stock)
}
