package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cognifood/shelf-life-api/config"
	"github.com/cognifood/shelf-life-api/logger"
	"github.com/cognifood/shelf-life-api/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// HealthMessage is returned by GET / while the process is serving.
const HealthMessage = "Shelf Life Prediction API is running!"

// Predictor produces a shelf-life prediction for one item.
type Predictor interface {
	Predict(food, category, storage string) (*model.Prediction, error)
}

type Input struct {
	Food     string `json:"food" binding:"required"`
	Category string `json:"category" binding:"required"`
	Storage  string `json:"storage" binding:"required"`
}

// FullResponse echoes every input field.
type FullResponse struct {
	Food                   string  `json:"food"`
	Category               string  `json:"category"`
	Storage                string  `json:"storage"`
	PredictedShelfLifeDays float64 `json:"predicted_shelf_life_days"`
}

// FoodResponse echoes only the food name.
type FoodResponse struct {
	Food                   string  `json:"food"`
	PredictedShelfLifeDays float64 `json:"predicted_shelf_life_days"`
}

type Handlers struct {
	predictor Predictor
	echo      string
	metrics   *Metrics
}

func NewHandlers(p Predictor, echo string, m *Metrics) *Handlers {
	if echo == "" {
		echo = config.EchoFull
	}
	return &Handlers{predictor: p, echo: echo, metrics: m}
}

func (h *Handlers) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": HealthMessage})
}

func (h *Handlers) PredictHandler(c *gin.Context) {
	start := time.Now()
	log := logger.Get().With().Str("request_id", c.GetString(requestIDKey)).Logger()

	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		h.metrics.observe(outcomeInvalid, start)
		fields := missingFields(err)
		if len(fields) == 0 {
			log.Debug().Err(err).Msg("invalid request body")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "missing required field: " + strings.Join(fields, ", "),
			"fields": fields,
		})
		return
	}
	if fields := blankFields(input); len(fields) > 0 {
		h.metrics.observe(outcomeInvalid, start)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "missing required field: " + strings.Join(fields, ", "),
			"fields": fields,
		})
		return
	}

	pred, err := h.predictor.Predict(input.Food, input.Category, input.Storage)
	if err != nil {
		var uce *model.UnknownCategoryError
		if errors.As(err, &uce) {
			h.metrics.observe(outcomeUnknownCategory, start)
			log.Warn().Str("field", uce.Field).Str("value", uce.Value).Msg("unrecognized value")
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "unrecognized value",
				"field": uce.Field,
				"value": uce.Value,
			})
			return
		}
		if errors.Is(err, model.ErrEmptyInput) {
			h.metrics.observe(outcomeInvalid, start)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.metrics.observe(outcomeError, start)
		log.Error().Err(err).Msg("prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	h.metrics.observe(outcomeOK, start)
	log.Debug().
		Str("food", pred.Food).
		Str("category", pred.Category).
		Str("storage", pred.Storage).
		Float64("days", pred.Days).
		Msg("prediction")

	if h.echo == config.EchoFood {
		c.JSON(http.StatusOK, FoodResponse{
			Food:                   pred.Food,
			PredictedShelfLifeDays: pred.Days,
		})
		return
	}
	c.JSON(http.StatusOK, FullResponse{
		Food:                   pred.Food,
		Category:               pred.Category,
		Storage:                pred.Storage,
		PredictedShelfLifeDays: pred.Days,
	})
}

// missingFields lists the JSON names of fields that failed the required check.
func missingFields(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fields
}

func blankFields(in Input) []string {
	var fields []string
	for _, f := range []struct{ name, value string }{
		{model.FieldFood, in.Food},
		{model.FieldCategory, in.Category},
		{model.FieldStorage, in.Storage},
	} {
		if strings.TrimSpace(f.value) == "" {
			fields = append(fields, f.name)
		}
	}
	return fields
}
