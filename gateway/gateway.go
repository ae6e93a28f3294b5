// Package gateway is the HTTP front door of a flow: it mounts one dispatch
// route per registered graph on the shared server, bounds how many client
// requests are in flight at once, and translates between the JSON the
// client speaks and the wire types the dispatch engine consumes.
package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bitsyflow/core/auth"
	"bitsyflow/core/dispatch"
	apperrors "bitsyflow/core/errors"
	"bitsyflow/core/logger"
	"bitsyflow/core/observability"
	"bitsyflow/core/resilience"
	"bitsyflow/core/server"
	"bitsyflow/core/server/middleware"
	"bitsyflow/core/topology"
	"bitsyflow/core/wire"
)

// Gateway mounts flow dispatch endpoints on a Gin engine. One Gateway
// serves every flow in its registry; per-flow state lives in the compiled
// graphs, not here.
type Gateway struct {
	cfg       Config
	session   *dispatch.Session
	registry  *topology.Registry
	bulkhead  *resilience.Bulkhead
	validator auth.TokenValidator
	log       *logger.Logger
}

// New creates a Gateway over session and registry. cfg is copied;
// ApplyDefaults is called on the copy.
func New(cfg Config, session *dispatch.Session, registry *topology.Registry, log *logger.Logger) *Gateway {
	cfg.ApplyDefaults()
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "gateway",
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWait:       cfg.QueueTimeout,
	})
	return &Gateway{
		cfg:      cfg,
		session:  session,
		registry: registry,
		bulkhead: bh,
		log:      log.WithComponent("gateway"),
	}
}

// UseAuth protects the dispatch routes with validator. Must be called
// before RegisterRoutes. A nil validator leaves the routes open.
func (g *Gateway) UseAuth(validator auth.TokenValidator) {
	g.validator = validator
}

// RegisterRoutes mounts the gateway's endpoints:
//
//	POST {prefix}/:flow  — dispatch a request through the named flow
//	GET  {prefix}        — list registered flows
func (g *Gateway) RegisterRoutes(e *gin.Engine) {
	grp := e.Group(g.cfg.Prefix)
	if g.validator != nil {
		grp.Use(middleware.Auth(g.validator))
	}
	grp.GET("", g.listFlows)
	grp.POST("/:flow", g.dispatch)
}

// dispatchRequest is the JSON body of a dispatch call.
type dispatchRequest struct {
	RequestID string         `json:"requestId"`
	Endpoint  string         `json:"endpoint"`
	Documents []documentJSON `json:"documents"`
}

type documentJSON struct {
	ID      string         `json:"id"`
	Content map[string]any `json:"content"`
}

// dispatchResponse is the JSON envelope returned to the client.
type dispatchResponse struct {
	RequestID string            `json:"requestId"`
	Documents []documentJSON    `json:"documents"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Routes    []routeJSON       `json:"routes,omitempty"`
}

type routeJSON struct {
	Pod       string    `json:"pod"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    int       `json:"status"`
}

func (g *Gateway) listFlows(c *gin.Context) {
	server.RespondOK(c, g.registry.Names())
}

func (g *Gateway) dispatch(c *gin.Context) {
	flow := c.Param("flow")

	var body dispatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	if body.RequestID == "" {
		body.RequestID = uuid.NewString()
	}
	endpoint := body.Endpoint
	if endpoint == "" {
		endpoint = g.cfg.DefaultEndpoint
	}

	req := wire.Request{
		Header:    wire.Header{RequestID: body.RequestID, Endpoint: endpoint},
		Documents: make([]wire.Document, len(body.Documents)),
	}
	for i, d := range body.Documents {
		req.Documents[i] = wire.Document{ID: d.ID, Content: d.Content}
	}

	ctx, span := observability.StartSpan(c.Request.Context(), "gateway.dispatch")
	observability.SetSpanAttribute(ctx, "flow", flow)
	observability.SetSpanAttribute(ctx, "endpoint", endpoint)
	defer span.End()

	resp, err := resilience.ExecuteWithResult(g.bulkhead, ctx, func() (*wire.Response, error) {
		return g.session.Dispatch(ctx, flow, req, endpoint)
	})
	if err != nil {
		observability.SetSpanError(ctx, err)
		switch {
		case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
			server.RespondWithError(c, apperrors.RateLimited())
		case g.isUnknownFlow(flow):
			server.RespondWithError(c, apperrors.NotFound("flow", flow))
		default:
			server.RespondWithError(c, apperrors.Internal(err))
		}
		return
	}

	out := dispatchResponse{
		RequestID: resp.Header.RequestID,
		Documents: make([]documentJSON, len(resp.Documents)),
		Metadata:  resp.Metadata,
	}
	for i, d := range resp.Documents {
		out.Documents[i] = documentJSON{ID: d.ID, Content: d.Content}
	}
	for _, r := range resp.Routes {
		out.Routes = append(out.Routes, routeJSON{
			Pod:       r.Pod,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Status:    r.Status.Code,
		})
	}

	// A short-circuited dispatch still carries its route trace; the marker
	// maps to 502 so clients distinguish pod failure from gateway failure.
	if resp.Metadata.IsError() {
		g.log.Warn("flow dispatch short-circuited", map[string]interface{}{
			"flow": flow, "requestId": body.RequestID,
		})
		c.JSON(http.StatusBadGateway, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (g *Gateway) isUnknownFlow(flow string) bool {
	_, ok := g.registry.Get(flow)
	return !ok
}
