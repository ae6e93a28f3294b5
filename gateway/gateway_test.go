package gateway_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"bitsyflow/core/auth"
	"bitsyflow/core/connpool/testutil"
	"bitsyflow/core/dispatch"
	"bitsyflow/core/gateway"
	"bitsyflow/core/logger"
	"bitsyflow/core/topology"
	"bitsyflow/core/wire"
)

func newTestGateway(t *testing.T, pool *testutil.FakePool) (*gateway.Gateway, *topology.Registry) {
	t.Helper()

	b := topology.NewBuilder()
	b.Add("encode")
	b.Add("index", topology.Needs("encode"))
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	reg := topology.NewRegistry()
	reg.Register("search", g)

	log := logger.NewDefault("gateway-test")
	engine := dispatch.NewEngine(pool, log)
	session := dispatch.NewSession(engine, reg)
	return gateway.New(gateway.Config{}, session, reg, log), reg
}

func echoResponder(pod string) testutil.Responder {
	return func(_ context.Context, requests []wire.Request) (*wire.Response, wire.Metadata, error) {
		var docs []wire.Document
		for _, req := range requests {
			docs = append(docs, req.Documents...)
		}
		docs = append(docs, wire.Document{ID: pod})
		return &wire.Response{Documents: docs, Status: wire.Status{Code: 200}}, nil, nil
	}
}

func postFlow(t *testing.T, engine *gin.Engine, flow string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/flows/"+flow, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rr, req)
	return rr
}

func TestGateway_DispatchFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pool := testutil.NewFakePool()
	pool.Handle("encode", echoResponder("encode"))
	pool.Handle("index", echoResponder("index"))

	gw, _ := newTestGateway(t, pool)
	engine := gin.New()
	gw.RegisterRoutes(engine)

	rr := postFlow(t, engine, "search", map[string]any{
		"documents": []map[string]any{{"id": "doc-1", "content": map[string]any{"text": "hello"}}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		RequestID string `json:"requestId"`
		Documents []struct {
			ID string `json:"id"`
		} `json:"documents"`
		Routes []struct {
			Pod string `json:"pod"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.RequestID == "" {
		t.Fatal("expected a generated request id")
	}
	// encode echoes {doc-1, encode}; index appends itself.
	if len(resp.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(resp.Documents))
	}
	pods := make(map[string]bool)
	for _, r := range resp.Routes {
		pods[r.Pod] = true
	}
	if !pods["encode"] || !pods["index"] {
		t.Fatalf("expected route entries for encode and index, got %v", resp.Routes)
	}
}

func TestGateway_UnknownFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw, _ := newTestGateway(t, testutil.NewFakePool())
	engine := gin.New()
	gw.RegisterRoutes(engine)

	rr := postFlow(t, engine, "missing", map[string]any{"documents": []map[string]any{}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown flow, got %d", rr.Code)
	}
}

func TestGateway_ShortCircuitMapsToBadGateway(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pool := testutil.NewFakePool()
	pool.Handle("encode", func(_ context.Context, _ []wire.Request) (*wire.Response, wire.Metadata, error) {
		return &wire.Response{Metadata: wire.ErrorMetadata()}, wire.ErrorMetadata(), nil
	})
	pool.Handle("index", echoResponder("index"))

	gw, _ := newTestGateway(t, pool)
	engine := gin.New()
	gw.RegisterRoutes(engine)

	rr := postFlow(t, engine, "search", map[string]any{
		"documents": []map[string]any{{"id": "doc-1"}},
	})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for short-circuited dispatch, got %d", rr.Code)
	}

	var resp struct {
		Metadata map[string]string `json:"metadata"`
		Routes   []struct {
			Pod string `json:"pod"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Metadata["is-error"] != "true" {
		t.Fatalf("expected error marker in metadata, got %v", resp.Metadata)
	}
	// Only the failing pod was invoked; index never ran.
	for _, r := range resp.Routes {
		if r.Pod == "index" {
			t.Fatal("index must not appear in the route trace after a short circuit")
		}
	}
}

func TestGateway_AuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	pool := testutil.NewFakePool()
	pool.Handle("encode", echoResponder("encode"))
	pool.Handle("index", echoResponder("index"))

	gw, _ := newTestGateway(t, pool)
	gw.UseAuth(auth.TokenValidatorFunc(func(token string) (any, error) {
		if token != "valid-token" {
			return nil, errors.New("bad token")
		}
		return map[string]string{"sub": "client"}, nil
	}))
	engine := gin.New()
	gw.RegisterRoutes(engine)

	rr := postFlow(t, engine, "search", map[string]any{
		"documents": []map[string]any{{"id": "doc-1"}},
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rr.Code)
	}

	raw, _ := json.Marshal(map[string]any{
		"documents": []map[string]any{{"id": "doc-1"}},
	})
	req := httptest.NewRequest("POST", "/flows/search", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid-token")
	rr = httptest.NewRecorder()
	engine.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid token, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGateway_ListFlows(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw, reg := newTestGateway(t, testutil.NewFakePool())
	engine := gin.New()
	gw.RegisterRoutes(engine)

	b := topology.NewBuilder()
	b.Add("rank")
	g, err := b.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	reg.Register("rank-only", g)

	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest("GET", "/flows", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0] != "rank-only" || resp.Data[1] != "search" {
		t.Fatalf("expected sorted flow names [rank-only search], got %v", resp.Data)
	}
}
