// Package discovery provides service discovery abstractions for bitsyflow applications.
//
// It defines interfaces and types for dynamically discovering healthy service
// instances from registries such as Consul or static configuration. The package
// follows the module-wide component pattern with lifecycle management and health checks.
//
// # Architecture
//
//   - Client: Resolves service instances by name with caching and load balancing
//   - Registry: Manages service registration and deregistration
//   - Strategy: Selects an instance from available candidates (e.g., round-robin)
//
// # Backends
//
//   - discovery/consul: HashiCorp Consul service discovery
//   - discovery/static: Static list of endpoints for development/testing
package discovery
