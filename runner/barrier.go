package runner

import (
	"context"
	"fmt"
	"time"

	"bitsyflow/core/connpool"
	"bitsyflow/core/deploy"
	"bitsyflow/core/wire"
)

const healthEndpoint = "_health"

// BarrierConfig controls how Await polls a head's health endpoint.
type BarrierConfig struct {
	// PollInterval is the wait between probes. Defaults to 500ms.
	PollInterval time.Duration
	// DefaultTimeout is used for any head whose Timeouts entry is zero.
	// Defaults to 30s.
	DefaultTimeout time.Duration
}

// Await blocks until every head instance in dep answers a health probe, or
// its timeout_ready window elapses — generalizing bootstrap.App.ReadyCheck's
// "poll every component's Health()" shape to a gRPC health-check RPC sent
// through connpool.Pool.SendRequestSync. addresses maps a head Spec's Name
// to its dial address; timeouts maps the same name to its node's
// topology.Node.TimeoutReady. On the first head that never becomes ready,
// Await tears the whole deployment down in reverse start order via
// adapter.Shutdown — the same reverse-order loop component.Registry.StopAll
// uses for components — and returns the readiness error.
func Await(
	ctx context.Context,
	adapter Adapter,
	dep *Deployment,
	pool connpool.Pool,
	addresses map[string]string,
	timeouts map[string]time.Duration,
	cfg BarrierConfig,
) error {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	defaultTimeout := cfg.DefaultTimeout
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}

	for _, inst := range dep.Instances {
		if inst.Spec.Role != deploy.RoleHead {
			continue
		}

		addr, ok := addresses[inst.Spec.Name]
		if !ok {
			// No dial address known for this head (e.g. a Container
			// backend relying on discovery/consul label lookup instead
			// of an explicit address map) — nothing to poll.
			continue
		}

		// A zero entry means the caller never set one for this head, so
		// it falls back to the barrier's default. A negative entry is
		// the explicit timeout_ready=-1 ("forever") sentinel preserved by
		// topology.timeoutFromMillis and must never be replaced by the
		// default — dispatch.Engine.invoke treats the same field's sign
		// the same way for its own per-call deadline.
		timeout := timeouts[inst.Spec.Name]
		if timeout == 0 {
			timeout = defaultTimeout
		}

		if err := awaitOne(ctx, pool, addr, timeout, pollInterval); err != nil {
			if shutdownErr := adapter.Shutdown(ctx, dep); shutdownErr != nil {
				return fmt.Errorf("runner: %s failed readiness (%w); teardown also failed: %v", inst.Spec.Name, err, shutdownErr)
			}
			return fmt.Errorf("runner: %s failed readiness within %s: %w", inst.Spec.Name, timeout, err)
		}
	}
	return nil
}

// awaitOne polls addr every pollInterval until it answers a health probe. A
// negative timeout means wait forever (timeout_ready=-1); the deadline
// check is skipped entirely in that case and only ctx cancellation can end
// the poll loop early.
func awaitOne(ctx context.Context, pool connpool.Pool, addr string, timeout, pollInterval time.Duration) error {
	forever := timeout < 0
	deadline := time.Now().Add(timeout)
	req := wire.Request{Header: wire.Header{Endpoint: healthEndpoint}}

	var lastErr error
	for {
		probeCtx, cancel := context.WithTimeout(ctx, pollInterval)
		_, err := pool.SendRequestSync(probeCtx, req, addr)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if !forever && !time.Now().Before(deadline) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
