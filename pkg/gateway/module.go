package gateway

// ModuleRef is a reference to a backend module selected for a request.
// The request context only needs the identifier for log lines; ownership
// of the module descriptor stays with the resolver.
type ModuleRef interface {
	ModuleID() string
}
