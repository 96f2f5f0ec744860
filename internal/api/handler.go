package api

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"gosprt/adapters/report"
	"gosprt/adapters/simulation"
	"gosprt/domain/sprt"
	"gosprt/internal"
	"gosprt/internal/config"
	"gosprt/internal/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves likelihood ratio and simulation requests
type Handler struct {
	runner   *simulation.Runner
	defaults config.SimulationConfig
	logger   *internal.Logger
}

// NewHandler creates a new handler
func NewHandler(runner *simulation.Runner, defaults config.SimulationConfig, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{
		runner:   runner,
		defaults: defaults,
		logger:   logger.With("api"),
	}
}

// NewRouter builds the gin engine with all routes registered
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	h.Register(router)
	return router
}

// Register mounts the handler's routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/ratios", h.ComputeRatios)
	v1.POST("/simulations", h.RunSimulation)
	v1.POST("/simulations/workbook", h.ExportSimulation)
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ComputeRatios returns the cumulative likelihood ratio after each draw
func (h *Handler) ComputeRatios(c *gin.Context) {
	var req RatiosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.InvalidInput(fmt.Sprintf("malformed request body: %v", err)))
		return
	}

	hyp := sprt.Hypotheses{N: req.N, P0: req.P0, P1: req.P1}
	ratios, err := sprt.Compute(req.Outcomes, hyp)
	if err != nil {
		h.fail(c, errors.Wrap(err, "invalid ratio request"))
		return
	}

	resp := RatiosResponse{Ratios: toRatios(ratios), Evidence: sprt.EvidenceFinite.String()}
	if len(ratios) > 0 {
		resp.Evidence = sprt.Classify(ratios[len(ratios)-1]).String()
	}
	if req.Alpha != nil {
		if err := sprt.ValidateAlpha(*req.Alpha); err != nil {
			h.fail(c, errors.Wrap(err, "invalid ratio request"))
			return
		}
		resp.Decision = newDecisionPayload(sprt.Decide(ratios, *req.Alpha))
	}

	h.logger.Debug("ratios: N=%d draws=%d evidence=%s", hyp.N, len(ratios), resp.Evidence)
	c.JSON(http.StatusOK, resp)
}

// RunSimulation executes a Monte Carlo study and returns every trial
func (h *Handler) RunSimulation(c *gin.Context) {
	res, ok := h.simulate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SimulationResponse{Result: res})
}

// ExportSimulation executes a study and returns it as an xlsx workbook
func (h *Handler) ExportSimulation(c *gin.Context) {
	res, ok := h.simulate(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, res); err != nil {
		h.fail(c, errors.Wrap(err, "failed to build workbook"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="sprt-%s.xlsx"`, res.RunID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) simulate(c *gin.Context) (*simulation.Result, bool) {
	var req SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.InvalidInput(fmt.Sprintf("malformed request body: %v", err)))
		return nil, false
	}

	cfg := h.simulationConfig(req)
	if cfg.Trials > h.defaults.MaxTrials {
		h.fail(c, errors.InvalidInput(fmt.Sprintf("trials %d exceeds limit %d", cfg.Trials, h.defaults.MaxTrials)))
		return nil, false
	}
	if cfg.Hypotheses.N > h.defaults.MaxN {
		h.fail(c, errors.InvalidInput(fmt.Sprintf("population %d exceeds limit %d", cfg.Hypotheses.N, h.defaults.MaxN)))
		return nil, false
	}

	res, err := h.runner.Run(c.Request.Context(), cfg)
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			h.fail(c, errors.Canceled(err))
		} else {
			h.fail(c, errors.Wrap(err, "simulation failed"))
		}
		return nil, false
	}
	return res, true
}

func (h *Handler) simulationConfig(req SimulationRequest) simulation.Config {
	cfg := simulation.Config{
		Hypotheses: sprt.Hypotheses{N: req.N, P0: req.P0, P1: req.P1},
		TrueP:      req.P,
		Alpha:      req.Alpha,
		Trials:     req.Trials,
		Workers:    req.Workers,
		Seed:       h.defaults.Seed,
	}
	if cfg.Alpha == 0 {
		cfg.Alpha = h.defaults.Alpha
	}
	if cfg.Trials == 0 {
		cfg.Trials = h.defaults.Trials
	}
	if cfg.Workers <= 0 || cfg.Workers > h.defaults.Workers {
		cfg.Workers = h.defaults.Workers
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	return cfg
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		h.logger.Debug("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
