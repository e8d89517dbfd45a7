package api

import (
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	Predictor   Predictor
	Echo        string
	CORSEnabled bool
	Origins     []string
	Metrics     *Metrics
}

// NewRouter wires the HTTP surface: GET / for health, POST /predict and GET /metrics.
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger())
	if opts.CORSEnabled {
		r.Use(CORS(opts.Origins))
	}

	h := NewHandlers(opts.Predictor, opts.Echo, opts.Metrics)
	r.GET("/", h.HealthHandler)
	r.POST("/predict", h.PredictHandler)
	if opts.Metrics != nil {
		r.GET("/metrics", opts.Metrics.Handler())
	}
	return r
}
