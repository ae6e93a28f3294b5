// Package provider implements a generic provider framework using Go
// generics for swappable execution backends.
//
// A provider is anything that executes a request on behalf of the flow —
// a subprocess runner, a container runtime, an RPC adapter to a remote
// pod. The registry manages multiple implementations with factory-based
// instantiation and availability checking; the middleware wrappers add
// logging, metrics, tracing, and resilience around any
// RequestResponse-shaped backend without the backend knowing.
//
// # Usage
//
//	reg := provider.NewRegistry[MyProvider]()
//	reg.RegisterFactory("default", myFactory)
//	p, err := reg.Create("default", cfg)
package provider
