package status

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"mixologue-backend/internal/imagegen"
	"mixologue-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type ChainReporter interface {
	Status() []imagegen.ProviderStatus
	DefaultRef() string
}

type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

// Options carries what the status endpoints report on. Cache and LLM may be
// nil.
type Options struct {
	Version       string
	Database      Pinger
	Cache         Pinger
	Chain         ChainReporter
	LLM           ConnectionTester
	LLMModel      string
	StorageDriver string
}

type Handler struct {
	opts Options
	log  *zap.Logger
}

func NewHandler(opts Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{opts: opts, log: log}
}

type LLMStatus struct {
	Configured bool   `json:"configured"`
	Model      string `json:"model,omitempty"`
	Reachable  *bool  `json:"reachable,omitempty"`
	Error      string `json:"error,omitempty"`
}

type StatusResponse struct {
	Version        string                    `json:"version"`
	LLM            LLMStatus                 `json:"llm"`
	ImageProviders []imagegen.ProviderStatus `json:"image_providers"`
	DefaultImage   string                    `json:"default_image"`
	Storage        string                    `json:"storage"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// GetStatus godoc
// @Summary Service status
// @Description Configured LLM, the image provider chain in priority order and the storage backend
// @Tags status
// @Produce json
// @Param check_llm query bool false "Send a test completion to the LLM"
// @Success 200 {object} utils.Response{data=StatusResponse}
// @Router /status [get]
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Version: h.opts.Version,
		LLM: LLMStatus{
			Configured: h.opts.LLM != nil,
			Model:      h.opts.LLMModel,
		},
		ImageProviders: []imagegen.ProviderStatus{},
		Storage:        h.opts.StorageDriver,
	}
	if h.opts.Chain != nil {
		resp.ImageProviders = h.opts.Chain.Status()
		resp.DefaultImage = h.opts.Chain.DefaultRef()
	}

	if check, _ := strconv.ParseBool(c.Query("check_llm")); check && h.opts.LLM != nil {
		ok := true
		if err := h.opts.LLM.TestConnection(c.Request.Context()); err != nil {
			ok = false
			resp.LLM.Error = err.Error()
			h.log.Warn("LLM connection test failed", zap.Error(err))
		}
		resp.LLM.Reachable = &ok
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Status retrieved successfully", resp))
}

// Health godoc
// @Summary Health check
// @Description Pings the database and the cache. A database failure answers 503, a cache failure only degrades.
// @Tags status
// @Produce json
// @Success 200 {object} utils.Response{data=HealthResponse}
// @Failure 503 {object} utils.Response{data=HealthResponse}
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	var dbErr, cacheErr error
	var g errgroup.Group
	if h.opts.Database != nil {
		g.Go(func() error {
			dbErr = h.opts.Database.Ping(ctx)
			return nil
		})
	}
	if h.opts.Cache != nil {
		g.Go(func() error {
			cacheErr = h.opts.Cache.Ping(ctx)
			return nil
		})
	}
	g.Wait()

	resp := HealthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	if h.opts.Database != nil {
		resp.Checks["database"] = checkResult(dbErr)
		if dbErr != nil {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			h.log.Error("Database health check failed", zap.Error(dbErr))
		}
	}
	if h.opts.Cache != nil {
		resp.Checks["cache"] = checkResult(cacheErr)
		if cacheErr != nil && status == http.StatusOK {
			resp.Status = "degraded"
			h.log.Warn("Cache health check failed", zap.Error(cacheErr))
		}
	}

	c.JSON(status, utils.Response{Status: status, Message: "Health check " + resp.Status, Data: resp})
}

func checkResult(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
