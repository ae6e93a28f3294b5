package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"bitsyflow/core/connpool/testutil"
	"bitsyflow/core/deploy"
	"bitsyflow/core/runner"
	"bitsyflow/core/wire"
)

// fakeAdapter is a no-op Adapter that only records whether Shutdown ran, for
// verifying Await's reverse-order-teardown-on-failure behavior without a
// real subprocess or container backend.
type fakeAdapter struct {
	shutdownCalled bool
}

func (f *fakeAdapter) Start(ctx context.Context, specs []deploy.Spec) (*runner.Deployment, error) {
	return &runner.Deployment{}, nil
}

func (f *fakeAdapter) Shutdown(ctx context.Context, dep *runner.Deployment) error {
	f.shutdownCalled = true
	return nil
}

func TestAwaitSucceedsWhenHealthy(t *testing.T) {
	pool := testutil.NewFakePool()
	pool.Handle("encoder:8081", func(ctx context.Context, reqs []wire.Request) (*wire.Response, wire.Metadata, error) {
		return &wire.Response{}, nil, nil
	})

	dep := &runner.Deployment{Instances: []runner.Instance{
		{Spec: deploy.Spec{Name: "encoder", Role: deploy.RoleHead}, Ref: "encoder"},
	}}
	adapter := &fakeAdapter{}

	err := runner.Await(context.Background(), adapter, dep, pool,
		map[string]string{"encoder": "encoder:8081"},
		nil,
		runner.BarrierConfig{PollInterval: 10 * time.Millisecond, DefaultTimeout: 200 * time.Millisecond},
	)
	if err != nil {
		t.Fatalf("expected Await to succeed, got %v", err)
	}
	if adapter.shutdownCalled {
		t.Error("Shutdown should not run when readiness succeeds")
	}
}

func TestAwaitTimesOutAndTearsDown(t *testing.T) {
	pool := testutil.NewFakePool()
	pool.Handle("encoder:8081", func(ctx context.Context, reqs []wire.Request) (*wire.Response, wire.Metadata, error) {
		return nil, nil, errors.New("connection refused")
	})

	dep := &runner.Deployment{Instances: []runner.Instance{
		{Spec: deploy.Spec{Name: "encoder", Role: deploy.RoleHead}, Ref: "encoder"},
	}}
	adapter := &fakeAdapter{}

	err := runner.Await(context.Background(), adapter, dep, pool,
		map[string]string{"encoder": "encoder:8081"},
		nil,
		runner.BarrierConfig{PollInterval: 10 * time.Millisecond, DefaultTimeout: 60 * time.Millisecond},
	)
	if err == nil {
		t.Fatal("expected Await to fail readiness")
	}
	if !adapter.shutdownCalled {
		t.Error("expected Shutdown to run after readiness failure")
	}
}

func TestAwaitNegativeTimeoutWaitsForever(t *testing.T) {
	pool := testutil.NewFakePool()
	var attempts int
	pool.Handle("encoder:8081", func(ctx context.Context, reqs []wire.Request) (*wire.Response, wire.Metadata, error) {
		attempts++
		if attempts < 3 {
			return nil, nil, errors.New("connection refused")
		}
		return &wire.Response{}, nil, nil
	})

	dep := &runner.Deployment{Instances: []runner.Instance{
		{Spec: deploy.Spec{Name: "encoder", Role: deploy.RoleHead}, Ref: "encoder"},
	}}
	adapter := &fakeAdapter{}

	// DefaultTimeout is deliberately shorter than the time three retries at
	// PollInterval would take, so a correct "forever" sentinel is the only
	// thing that lets this succeed instead of timing out.
	err := runner.Await(context.Background(), adapter, dep, pool,
		map[string]string{"encoder": "encoder:8081"},
		map[string]time.Duration{"encoder": -1},
		runner.BarrierConfig{PollInterval: 5 * time.Millisecond, DefaultTimeout: 10 * time.Millisecond},
	)
	if err != nil {
		t.Fatalf("expected a timeout_ready=-1 head to be awaited indefinitely, got %v", err)
	}
	if adapter.shutdownCalled {
		t.Error("Shutdown should not run when readiness eventually succeeds")
	}
	if attempts < 3 {
		t.Fatalf("expected at least 3 probe attempts, got %d", attempts)
	}
}

func TestAwaitSkipsHeadsWithoutAddress(t *testing.T) {
	pool := testutil.NewFakePool()
	dep := &runner.Deployment{Instances: []runner.Instance{
		{Spec: deploy.Spec{Name: "encoder", Role: deploy.RoleHead}, Ref: "encoder"},
	}}
	adapter := &fakeAdapter{}

	err := runner.Await(context.Background(), adapter, dep, pool, nil, nil, runner.BarrierConfig{})
	if err != nil {
		t.Fatalf("expected Await to skip heads with no known address, got %v", err)
	}
}
