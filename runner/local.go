package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bitsyflow/core/deploy"
	"bitsyflow/core/logger"
	"bitsyflow/core/process"
	"bitsyflow/core/provider"
	"bitsyflow/core/resilience"
)

// LocalConfig configures the Local backend.
type LocalConfig struct {
	// WorkerBinary is the executable every deploy.Spec is run with; its
	// ContainerArgs (--node-name, --role, --uses, ...) become the
	// process's argv. An external collaborator: this package never
	// fabricates the binary itself.
	WorkerBinary string
	// GracefulWindow is how long a worker gets between SIGTERM and
	// SIGKILL. Defaults to 10s.
	GracefulWindow time.Duration
	// CircuitBreaker overrides the per-worker breaker that trips when a
	// worker repeatedly crash-loops. Defaults to
	// resilience.DefaultCircuitBreakerConfig(spec.Name).
	CircuitBreaker *resilience.CircuitBreakerConfig
}

type localProc struct {
	cancel context.CancelFunc
	done   chan *process.Result
}

// Local runs each deploy.Spec as a local subprocess. One process.Runner per
// instance means a crash-looping worker trips its own
// resilience.CircuitBreaker instead of spinning forever.
type Local struct {
	cfg LocalConfig
	log *logger.Logger

	mu    sync.Mutex
	procs map[string]*localProc
}

// NewLocal creates a Local backend.
func NewLocal(cfg LocalConfig, log *logger.Logger) *Local {
	return &Local{cfg: cfg, log: log, procs: make(map[string]*localProc)}
}

// Start launches one process.Command per spec, in order. A failure partway
// through tears down everything already started, mirroring Container.Start.
func (l *Local) Start(ctx context.Context, specs []deploy.Spec) (*Deployment, error) {
	dep := &Deployment{}
	for _, spec := range specs {
		inst, err := l.startOne(spec)
		if err != nil {
			_ = l.Shutdown(context.Background(), dep)
			return nil, fmt.Errorf("runner: start %s: %w", spec.Name, err)
		}
		dep.Instances = append(dep.Instances, inst)
	}
	return dep, nil
}

func (l *Local) startOne(spec deploy.Spec) (Instance, error) {
	if l.cfg.WorkerBinary == "" {
		return Instance{}, fmt.Errorf("runner: WorkerBinary is required")
	}

	args := make([]string, 0, len(spec.Command)+len(spec.ContainerArgs))
	args = append(args, spec.Command...)
	args = append(args, spec.ContainerArgs...)

	cmd := process.Command{
		Binary:      l.cfg.WorkerBinary,
		Args:        args,
		Env:         envSlice(spec.Env),
		GracePeriod: l.gracefulWindow(),
	}

	// Detached from the caller's ctx on purpose: Start returning must not
	// tear the worker down. Shutdown cancels it explicitly instead.
	procCtx, cancel := context.WithCancel(context.Background())
	done := make(chan *process.Result, 1)
	runner := process.NewRunner(provider.ResilienceConfig{
		CircuitBreaker: l.circuitBreakerConfig(spec.Name),
	})

	go func() {
		result, err := runner.Run(procCtx, cmd)
		if err != nil {
			l.log.Warn("worker process exited with error", map[string]interface{}{
				"spec":  spec.Name,
				"error": err.Error(),
			})
		}
		done <- result
	}()

	l.mu.Lock()
	l.procs[spec.Name] = &localProc{cancel: cancel, done: done}
	l.mu.Unlock()

	return Instance{Spec: spec, Ref: spec.Name}, nil
}

// Shutdown forwards SIGTERM (via context cancellation) to every instance in
// dep, in reverse start order, and waits for each to exit within its
// graceful window — exactly the reverse-order loop component.Registry.
// StopAll uses for components.
func (l *Local) Shutdown(ctx context.Context, dep *Deployment) error {
	var errs []error
	for i := len(dep.Instances) - 1; i >= 0; i-- {
		if err := l.stopOne(ctx, dep.Instances[i]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("runner: shutdown errors: %v", errs)
	}
	return nil
}

func (l *Local) stopOne(ctx context.Context, inst Instance) error {
	l.mu.Lock()
	p, ok := l.procs[inst.Ref]
	l.mu.Unlock()
	if !ok {
		return nil
	}

	p.cancel()
	select {
	case result := <-p.done:
		if result != nil {
			l.log.Info("worker process stopped", map[string]interface{}{
				"spec":      inst.Ref,
				"exit_code": result.ExitCode,
			})
		}
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", inst.Ref, ctx.Err())
	case <-time.After(l.gracefulWindow() + 5*time.Second):
		return fmt.Errorf("%s: timed out waiting for exit", inst.Ref)
	}

	l.mu.Lock()
	delete(l.procs, inst.Ref)
	l.mu.Unlock()
	return nil
}

func (l *Local) gracefulWindow() time.Duration {
	if l.cfg.GracefulWindow > 0 {
		return l.cfg.GracefulWindow
	}
	return 10 * time.Second
}

func (l *Local) circuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	if l.cfg.CircuitBreaker != nil {
		cb := *l.cfg.CircuitBreaker
		cb.Name = name
		return &cb
	}
	cb := resilience.DefaultCircuitBreakerConfig(name)
	return &cb
}

// envSlice renders a spec's Env map as "k=v" pairs in sorted key order, so
// the resulting argv is deterministic across runs.
func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

var _ Adapter = (*Local)(nil)
