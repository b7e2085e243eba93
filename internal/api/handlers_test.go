package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"dealscreener/server/config"
	"dealscreener/server/internal/estimator"
	"dealscreener/server/internal/geometry"
	"dealscreener/server/internal/market"
	"dealscreener/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixedModel struct {
	value    float64
	features []string
	target   string
}

func (m fixedModel) Predict(estimator.FeatureRow) (float64, error) { return m.value, nil }
func (m fixedModel) Features() []string                            { return m.features }
func (m fixedModel) Target() string                                { return m.target }

type memoryCache struct {
	mu    sync.Mutex
	items map[string]*models.Evaluation
	gets  int
}

func (c *memoryCache) Get(_ context.Context, key string) (*models.Evaluation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	e, ok := c.items[key]
	return e, ok
}

func (c *memoryCache) Set(_ context.Context, key string, e *models.Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = e
}

type memoryHistory struct {
	mu      sync.Mutex
	records []*models.EvaluationRecord
	pushErr error
}

func (m *memoryHistory) Push(rec *models.EvaluationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) Recent(limit int) ([]models.EvaluationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.EvaluationRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.records[i])
	}
	return out, nil
}

func (m *memoryHistory) Get(id string) (*models.EvaluationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func setupRouter(t *testing.T, withPrice bool) (*gin.Engine, *Handler) {
	t.Helper()
	router, handler, _ := setupRouterWithLogs(t, withPrice)
	return router, handler
}

func setupRouterWithLogs(t *testing.T, withPrice bool) (*gin.Engine, *Handler, *test.Hook) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var price estimator.Model
	if withPrice {
		price = fixedModel{value: 4_000_000, features: estimator.PriceFeatures, target: models.ColSalePrice}
	}
	ctx, err := market.New(config.DefaultZoneTable(), fixedModel{value: 22_000, features: estimator.RentFeatures, target: models.ColMonthlyRent}, price)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	handler := NewHandler(market.NewHolder(ctx), geometry.NewZoneLocator(config.DefaultZones, 0), logger)

	router := gin.New()
	SetupRoutes(router, handler)
	return router, handler, hook
}

func validRequest() map[string]any {
	return map[string]any{
		"property": map[string]any{
			"zone":        "Juriquilla",
			"m2":          110,
			"bedrooms":    3,
			"bathrooms":   2,
			"parking":     2,
			"price":       3_800_000,
			"age_years":   8,
			"vacancy_pct": 5,
		},
		"financing": map[string]any{
			"ltv_pct":         70,
			"annual_rate_pct": 10.5,
			"term_years":      20,
			"opex_pct":        18,
		},
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, false)
	w := get(router, "/api/health")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["price_model"])
}

func TestEvaluate_Rentals(t *testing.T) {
	router, _ := setupRouter(t, false)
	w := postJSON(t, router, "/api/evaluate", validRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var e models.Evaluation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Cached)
	require.NotNil(t, e.Analysis)
	assert.Equal(t, models.VariantRentals, e.Analysis.Variant)
	assert.Equal(t, 6, e.Analysis.Score.Score)
	assert.Equal(t, "weak", e.Analysis.Score.Label)
	assert.InDelta(t, 23_100, e.Analysis.Metrics.AdjustedRent, 1e-6)
	assert.Len(t, e.Analysis.Sensitivity, 5)
	assert.Nil(t, e.Analysis.Price)
}

func TestEvaluate_CashDealEncodesInfiniteDSCR(t *testing.T) {
	router, _ := setupRouter(t, false)
	req := validRequest()
	req["financing"].(map[string]any)["ltv_pct"] = 0

	w := postJSON(t, router, "/api/evaluate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"dscr":"inf"`)
}

func TestEvaluate_SalePrice(t *testing.T) {
	router, _ := setupRouter(t, true)
	req := validRequest()
	req["variant"] = "sale_price"

	w := postJSON(t, router, "/api/evaluate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var e models.Evaluation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	require.NotNil(t, e.Analysis.Price)
	assert.Equal(t, 4_000_000.0, e.Analysis.Price.Recommended)
}

func TestEvaluate_SalePriceUnavailable(t *testing.T) {
	router, _ := setupRouter(t, false)
	req := validRequest()
	req["variant"] = "sale_price"

	w := postJSON(t, router, "/api/evaluate", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestEvaluate_Validation(t *testing.T) {
	router, _ := setupRouter(t, false)

	tests := []struct {
		name    string
		section string
		field   string
		value   any
	}{
		{"area too small", "property", "m2", 39},
		{"area too large", "property", "m2", 261},
		{"no bedrooms", "property", "bedrooms", 0},
		{"too many bathrooms", "property", "bathrooms", 5},
		{"too much parking", "property", "parking", 5},
		{"price too low", "property", "price", 799_999},
		{"price too high", "property", "price", 20_000_001},
		{"too old", "property", "age_years", 41},
		{"vacancy too high", "property", "vacancy_pct", 21},
		{"ltv too high", "financing", "ltv_pct", 91},
		{"rate too low", "financing", "annual_rate_pct", 4.9},
		{"rate too high", "financing", "annual_rate_pct", 16.1},
		{"term too short", "financing", "term_years", 4},
		{"term too long", "financing", "term_years", 31},
		{"opex too low", "financing", "opex_pct", 4},
		{"opex too high", "financing", "opex_pct", 41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req[tt.section].(map[string]any)[tt.field] = tt.value
			w := postJSON(t, router, "/api/evaluate", req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	t.Run("unknown variant", func(t *testing.T) {
		req := validRequest()
		req["variant"] = "auction"
		w := postJSON(t, router, "/api/evaluate", req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("boundary values are accepted", func(t *testing.T) {
		req := validRequest()
		p := req["property"].(map[string]any)
		p["m2"] = 40
		p["price"] = 20_000_000
		p["parking"] = 0
		p["vacancy_pct"] = 20
		f := req["financing"].(map[string]any)
		f["ltv_pct"] = 90
		f["term_years"] = 30
		w := postJSON(t, router, "/api/evaluate", req)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}

func TestEvaluate_ZoneFromCoordinates(t *testing.T) {
	router, _ := setupRouter(t, false)

	req := validRequest()
	p := req["property"].(map[string]any)
	delete(p, "zone")
	p["latitude"] = 20.5925
	p["longitude"] = -100.3915

	w := postJSON(t, router, "/api/evaluate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var e models.Evaluation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "Centro", e.Analysis.Zone.Name)
	assert.True(t, e.Analysis.Zone.Known)

	delete(p, "latitude")
	delete(p, "longitude")
	w = postJSON(t, router, "/api/evaluate", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	p["latitude"] = 19.4326
	p["longitude"] = -99.1332
	w = postJSON(t, router, "/api/evaluate", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluate_CoordinatesOutsideCoverage(t *testing.T) {
	const message = "Coordinates outside zone coverage, using nearest zone"
	router, _, hook := setupRouterWithLogs(t, false)

	req := validRequest()
	p := req["property"].(map[string]any)
	delete(p, "zone")
	p["latitude"] = 20.6300
	p["longitude"] = -100.4000

	w := postJSON(t, router, "/api/evaluate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, message, entry.Message)
	}

	hook.Reset()
	p["latitude"] = 20.7250
	p["longitude"] = -100.4600

	w = postJSON(t, router, "/api/evaluate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var e models.Evaluation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, "Cumbres del Lago", e.Analysis.Zone.Name)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == message {
			found = true
			assert.Equal(t, "Cumbres del Lago", entry.Data["zone"])
		}
	}
	assert.True(t, found)
}

func TestEvaluate_UnknownZoneFallsBack(t *testing.T) {
	router, _ := setupRouter(t, false)
	req := validRequest()
	req["property"].(map[string]any)["zone"] = "Milenio"

	w := postJSON(t, router, "/api/evaluate", req)
	require.Equal(t, http.StatusOK, w.Code)

	var e models.Evaluation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.False(t, e.Analysis.Zone.Known)
	assert.Equal(t, 3, e.Analysis.Zone.RiskTier)
}

func TestEvaluate_CacheAndHistory(t *testing.T) {
	router, handler := setupRouter(t, false)
	c := &memoryCache{items: map[string]*models.Evaluation{}}
	h := &memoryHistory{}
	handler.SetCache(c)
	handler.SetHistory(h, h)

	first := postJSON(t, router, "/api/evaluate", validRequest())
	require.Equal(t, http.StatusOK, first.Code)
	second := postJSON(t, router, "/api/evaluate", validRequest())
	require.Equal(t, http.StatusOK, second.Code)

	var a, b models.Evaluation
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.False(t, a.Cached)
	assert.True(t, b.Cached)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Analysis.Score, b.Analysis.Score)
	assert.Len(t, c.items, 1)

	w := get(router, "/api/evaluations?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.EvaluationRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, b.ID, records[0].ID)

	w = get(router, "/api/evaluations/"+a.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	w = get(router, "/api/evaluations/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvaluate_HistoryFailureDoesNotFailRequest(t *testing.T) {
	router, handler := setupRouter(t, false)
	h := &memoryHistory{pushErr: errors.New("queue is full")}
	handler.SetHistory(h, h)

	w := postJSON(t, router, "/api/evaluate", validRequest())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListEvaluations_Disabled(t *testing.T) {
	router, _ := setupRouter(t, false)
	w := get(router, "/api/evaluations")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestZones(t *testing.T) {
	router, _ := setupRouter(t, false)

	w := get(router, "/api/zones")
	require.Equal(t, http.StatusOK, w.Code)
	var zones []models.ZoneProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zones))
	assert.Len(t, zones, len(config.DefaultZones))

	w = get(router, "/api/zones/Zibat%C3%A1")
	require.Equal(t, http.StatusOK, w.Code)
	var zone models.ZoneProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zone))
	assert.Equal(t, 1, zone.RiskTier)
	assert.True(t, zone.Known)

	w = get(router, "/api/zones/Nowhere")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &zone))
	assert.False(t, zone.Known)
	assert.Equal(t, 7.0, zone.TargetYield)

	w = get(router, "/api/zones.geojson")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"FeatureCollection"`)
}

func TestDebtService(t *testing.T) {
	router, _ := setupRouter(t, false)

	w := get(router, "/api/debt-service?loan=1000000&rate=10&years=20")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 9650.22, body["monthly_payment"], 0.01)

	w = get(router, "/api/debt-service?loan=1200000&rate=0&years=10")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 10_000.0, body["monthly_payment"])

	w = get(router, "/api/debt-service?loan=1000&rate=10")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarket(t *testing.T) {
	router, _ := setupRouter(t, true)
	w := get(router, "/api/market")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"price_features":null`)
	assert.NotContains(t, w.Body.String(), `"precio_venta_mxn"`)
}
