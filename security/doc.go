// Package security provides shared security primitives shared across the module.
//
// It includes TLS configuration and certificate handling that can be reused
// across HTTP, gRPC, and other transport modules.
//
// # TLS Configuration
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/path/to/ca.pem",
//	    CertFile: "/path/to/cert.pem",
//	    KeyFile:  "/path/to/key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
