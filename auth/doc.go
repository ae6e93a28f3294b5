// Package auth provides the token-validation building blocks the gateway
// front door uses to authenticate client requests before they reach the
// dispatch engine.
//
// Subpackages:
//
//   - auth/jwt     — Generic JWT token service using Go generics
//   - auth/authctx — Type-safe request context propagation for claims
//
// All packages follow the same conventions as the rest of the module:
// Config structs with ApplyDefaults()/Validate(), constructor functions,
// and mapstructure tags for config file loading.
//
// The top-level Config composes the subpackage configs for convenience:
//
//	auth:
//	  enabled: true
//	  jwt:
//	    secret: "my-secret"
//	    access_token_ttl: "15m"
package auth
