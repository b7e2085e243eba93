package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"dealscreener/server/internal/cache"
	"dealscreener/server/internal/deal"
	"dealscreener/server/internal/geometry"
	"dealscreener/server/internal/market"
	"dealscreener/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errZoneRequired = errors.New("zone or coordinates are required")

// ResultCache stores finished evaluations. Implementations never fail a request.
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.Evaluation, bool)
	Set(ctx context.Context, key string, e *models.Evaluation)
}

// Recorder accepts evaluation records for persistence.
type Recorder interface {
	Push(rec *models.EvaluationRecord) error
}

// HistoryReader lists persisted evaluations.
type HistoryReader interface {
	Recent(limit int) ([]models.EvaluationRecord, error)
	Get(id string) (*models.EvaluationRecord, error)
}

type Handler struct {
	market   *market.Holder
	locator  *geometry.ZoneLocator
	logger   *logrus.Logger
	cache    ResultCache
	recorder Recorder
	history  HistoryReader
	now      func() time.Time
}

func NewHandler(holder *market.Holder, locator *geometry.ZoneLocator, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if locator == nil {
		locator = geometry.NewZoneLocator(nil, 0)
	}

	return &Handler{
		market:  holder,
		locator: locator,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetCache enables the result cache
func (h *Handler) SetCache(c ResultCache) {
	h.cache = c
}

// SetHistory enables evaluation history
func (h *Handler) SetHistory(recorder Recorder, reader HistoryReader) {
	h.recorder = recorder
	h.history = reader
}

func (h *Handler) Health(c *gin.Context) {
	ctx := h.market.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"fingerprint": ctx.Fingerprint(),
		"price_model": ctx.HasPriceEstimator(),
	})
}

func (h *Handler) GetMarket(c *gin.Context) {
	ctx := h.market.Current()
	c.JSON(http.StatusOK, gin.H{
		"stats":          ctx.Stats(),
		"price_features": ctx.PriceFeatures(),
	})
}

// ListZones returns the profile of every zone in the table or the dataset. Dataset zones
// missing from the table carry the fallback profile.
func (h *Handler) ListZones(c *gin.Context) {
	ctx := h.market.Current()
	zones := ctx.Zones()

	profiles := zones.Profiles()
	for _, name := range ctx.Stats().Zones {
		if !zones.Has(name) {
			profiles = append(profiles, zones.Lookup(name))
		}
	}

	c.JSON(http.StatusOK, profiles)
}

func (h *Handler) GetZone(c *gin.Context) {
	c.JSON(http.StatusOK, h.market.Current().Zones().Lookup(c.Param("zone")))
}

func (h *Handler) GetZonesGeoJSON(c *gin.Context) {
	data, err := h.locator.FeatureCollection().MarshalJSON()
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode zone map")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode zone map"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

func (h *Handler) GetDebtService(c *gin.Context) {
	var q DebtServiceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.WithError(err).Debug("Invalid debt service query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters", "details": err.Error()})
		return
	}

	monthly := deal.MonthlyPayment(q.Loan, q.Rate, q.TermYears)
	c.JSON(http.StatusOK, gin.H{
		"loan":            q.Loan,
		"annual_rate_pct": q.Rate,
		"term_years":      q.TermYears,
		"monthly_payment": monthly,
		"annual_payment":  monthly * 12,
	})
}

func (h *Handler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Debug("Invalid evaluation request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters", "details": err.Error()})
		return
	}

	zone, err := h.resolveZone(req.Property)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	variant := req.Variant
	if variant == "" {
		variant = models.VariantRentals
	}

	mctx := h.market.Current()
	normalised := cacheRequest{
		Property:  req.Property.toInput(zone),
		Financing: req.Financing.toAssumptions(),
		Variant:   variant,
	}

	var key string
	if h.cache != nil {
		if key, err = cache.Key(mctx.Fingerprint(), normalised); err != nil {
			h.logger.WithError(err).Warn("Failed to derive cache key")
			key = ""
		}
	}

	var evaluation *models.Evaluation
	if key != "" {
		if hit, ok := h.cache.Get(c.Request.Context(), key); ok && hit.Analysis != nil {
			evaluation = &models.Evaluation{Cached: true, Analysis: hit.Analysis}
		}
	}

	if evaluation == nil {
		analysis, err := mctx.Evaluate(normalised.Property, normalised.Financing, variant)
		if err != nil {
			h.writeEvaluateError(c, err)
			return
		}
		evaluation = &models.Evaluation{Analysis: analysis}
		if key != "" {
			h.cache.Set(c.Request.Context(), key, evaluation)
		}
	}

	evaluation.ID = uuid.NewString()
	evaluation.CreatedAt = h.now()
	h.record(evaluation)

	h.logger.WithFields(logrus.Fields{
		"evaluation_id": evaluation.ID,
		"zone":          zone,
		"variant":       variant,
		"score":         evaluation.Analysis.Score.Score,
		"cached":        evaluation.Cached,
	}).Info("Evaluated deal")

	c.JSON(http.StatusOK, evaluation)
}

func (h *Handler) writeEvaluateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, market.ErrPriceEstimatorUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, market.ErrUnknownVariant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Failed to evaluate deal")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to evaluate deal"})
	}
}

// resolveZone prefers the zone name and falls back to the nearest zone to the coordinates.
func (h *Handler) resolveZone(p PropertyRequest) (string, error) {
	if p.Zone != "" {
		return p.Zone, nil
	}
	if p.Latitude == nil || p.Longitude == nil {
		return "", errZoneRequired
	}

	point := orb.Point{*p.Longitude, *p.Latitude}
	name, meters, ok := h.locator.Nearest(point)
	if !ok {
		return "", errors.New("no zone near the given coordinates")
	}
	if !h.locator.Covers(point) {
		h.logger.WithFields(logrus.Fields{
			"zone":      name,
			"meters":    meters,
			"latitude":  *p.Latitude,
			"longitude": *p.Longitude,
		}).Info("Coordinates outside zone coverage, using nearest zone")
	}
	h.logger.WithFields(logrus.Fields{
		"zone":   name,
		"meters": meters,
	}).Debug("Resolved zone from coordinates")
	return name, nil
}

func (h *Handler) record(e *models.Evaluation) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.Push(models.NewEvaluationRecord(e)); err != nil {
		h.logger.WithError(err).WithField("evaluation_id", e.ID).Warn("Failed to queue evaluation for history")
	}
}

func (h *Handler) ListEvaluations(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, []models.EvaluationRecord{})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	records, err := h.history.Recent(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get evaluation history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get evaluation history"})
		return
	}
	if records == nil {
		records = []models.EvaluationRecord{}
	}

	c.JSON(http.StatusOK, records)
}

func (h *Handler) GetEvaluation(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		return
	}

	rec, err := h.history.Get(c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get evaluation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get evaluation"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
