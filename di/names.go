package di

// PkgNames defines the base layer component names for the bootstrap layer.
// Projects embed this struct in their own shared/service DI names.
type PkgNames struct {
	// Core infrastructure
	Config           string
	Logger           string
	ServiceRegistry  string
	ServiceDiscovery string

	// Servers
	HTTPServer    string
	GRPCServer    string
	UnifiedServer string

	// Flow orchestration
	FlowRegistry   string
	DispatchEngine string
	ConnectionPool string
	Gateway        string
	Runner         string
}

// Pkg contains all component names for the bootstrap layer.
var Pkg = PkgNames{
	// Core infrastructure
	Config:           "config",
	Logger:           "logger",
	ServiceRegistry:  "service_registry",
	ServiceDiscovery: "service_discovery",

	// Servers
	HTTPServer:    "http_server",
	GRPCServer:    "grpc_server",
	UnifiedServer: "unified_server",

	// Flow orchestration
	FlowRegistry:   "flow_registry",
	DispatchEngine: "dispatch_engine",
	ConnectionPool: "connection_pool",
	Gateway:        "gateway",
	Runner:         "runner",
}
