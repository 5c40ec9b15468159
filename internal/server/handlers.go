package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gitrdm/natded/internal/ids"
	"github.com/gitrdm/natded/internal/parallel"
	"github.com/gitrdm/natded/pkg/natded"
)

// Handlers serves relation queries from a registry, running derivations on
// a bounded pool.
type Handlers struct {
	registry *Registry
	pool     *parallel.Pool
	logger   *slog.Logger
}

// NewHandlers returns handlers over registry and pool.
func NewHandlers(registry *Registry, pool *parallel.Pool, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{registry: registry, pool: pool, logger: logger}
}

// RegisterRoutes mounts the API on rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/health", h.HandleHealth)
	relations := rg.Group("/relations")
	{
		relations.GET("", h.HandleListRelations)
		relations.GET("/:name", h.HandleGetRelation)
		relations.POST("/:name/once", h.HandleQuery(parallel.ModeOnce))
		relations.POST("/:name/many", h.HandleQuery(parallel.ModeMany))
		relations.POST("/:name/explain", h.HandleQuery(parallel.ModeExplain))
	}
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   natded.Version,
		Relations: h.registry.Len(),
	})
}

// HandleListRelations handles GET /v1/relations.
func (h *Handlers) HandleListRelations(c *gin.Context) {
	names := h.registry.Names()
	out := make([]RelationInfo, 0, len(names))
	for _, n := range names {
		if r, ok := h.registry.Get(n); ok {
			out = append(out, RelationInfo{Name: n, Symbol: r.Symbol(), Arity: r.Arity()})
		}
	}
	c.JSON(http.StatusOK, out)
}

// HandleGetRelation handles GET /v1/relations/:name, listing the rules.
func (h *Handlers) HandleGetRelation(c *gin.Context) {
	name := c.Param("name")
	r, ok := h.registry.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "unknown relation " + name,
			Code:      "UNKNOWN_RELATION",
			RequestID: requestID(c),
		})
		return
	}
	info := RelationInfo{Name: name, Symbol: r.Symbol(), Arity: r.Arity()}
	for _, rule := range r.Definition().Rules() {
		info.Rules = append(info.Rules, rule.String())
	}
	c.JSON(http.StatusOK, info)
}

// HandleQuery returns the handler for POST /v1/relations/:name/{mode}.
//
// Response:
//
//	200 OK: QueryResponse
//	400 Bad Request: malformed body or wrong number of inputs
//	404 Not Found: unknown relation, or no rule applies
//	409 Conflict: more than one derivation
//	422 Unprocessable Entity: an input does not parse
//	508 Loop Detected: depth or step limit reached
func (h *Handlers) HandleQuery(mode parallel.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := requestID(c)
		name := c.Param("name")
		logger := h.logger.With("request_id", rid, "relation", name, "mode", string(mode))

		r, ok := h.registry.Get(name)
		if !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:     "unknown relation " + name,
				Code:      "UNKNOWN_RELATION",
				RequestID: rid,
			})
			return
		}

		var req QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:     "invalid request body: " + err.Error(),
				Code:      "INVALID_REQUEST",
				RequestID: rid,
			})
			return
		}

		ctx := c.Request.Context()
		q := parallel.Query{ID: rid, Mode: mode, Inputs: req.Inputs}
		done := make(chan parallel.Result, 1)
		var res parallel.Result
		if err := h.pool.Do(ctx, func() { done <- parallel.Run(ctx, r, q) }); err != nil {
			res = parallel.Result{ID: rid, Query: q, Err: err}
		} else {
			res = <-done
		}

		queryDuration.WithLabelValues(name, string(mode)).Observe(res.Elapsed.Seconds())

		if res.Err != nil {
			status, resp := errorResponse(res.Err)
			resp.RequestID = rid
			queriesTotal.WithLabelValues(name, string(mode), resp.Code).Inc()
			logger.Info("Query failed", "error", res.Err, "status", status)
			c.JSON(status, resp)
			return
		}

		queriesTotal.WithLabelValues(name, string(mode), "OK").Inc()
		logger.Debug("Query answered", "output", res.Output.String(), "elapsed", res.Elapsed)
		c.JSON(http.StatusOK, QueryResponse{
			RequestID: rid,
			Relation:  name,
			Mode:      string(mode),
			Output:    res.Output.String(),
			Proof:     proofNode(res.Proof),
			ElapsedMs: float64(res.Elapsed) / float64(time.Millisecond),
		})
	}
}

// errorResponse maps a query error to a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}
	var nerr *natded.NondeterministicError
	switch {
	case errors.Is(err, natded.ErrParse):
		resp.Code = "PARSE_ERROR"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, natded.ErrArity):
		resp.Code = "ARITY"
		return http.StatusBadRequest, resp
	case errors.Is(err, natded.ErrNoRuleApplies):
		resp.Code = "NO_RULE_APPLIES"
		return http.StatusNotFound, resp
	case errors.As(err, &nerr):
		resp.Code = "NONDETERMINISTIC"
		for _, c := range nerr.Candidates {
			resp.Candidates = append(resp.Candidates, c.String())
		}
		return http.StatusConflict, resp
	case errors.Is(err, natded.ErrDepthExceeded), errors.Is(err, natded.ErrStepLimit):
		resp.Code = "LIMIT_EXCEEDED"
		return http.StatusLoopDetected, resp
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		resp.Code = "TIMEOUT"
		return http.StatusGatewayTimeout, resp
	case errors.Is(err, parallel.ErrPoolShutdown):
		resp.Code = "SHUTTING_DOWN"
		return http.StatusServiceUnavailable, resp
	default:
		resp.Code = "INTERNAL"
		return http.StatusInternalServerError, resp
	}
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware tags every response, including /metrics, with a
// request ID.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID(c)
		c.Next()
	}
}

// requestID returns the caller's request ID, or a new one, and echoes it in
// the response.
func requestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDHeader); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	rid := c.GetHeader(requestIDHeader)
	if rid == "" {
		rid = ids.New()
	}
	c.Set(requestIDHeader, rid)
	c.Header(requestIDHeader, rid)
	return rid
}
