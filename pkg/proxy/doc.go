// Package proxy provides the HTTP server and request pipeline for the
// gateway. The server accepts client requests, resolves the module chain
// for the request path from the registry, and forwards the request through
// each module in turn while the gateway request context tracks correlation
// ids, per-hop timing, and trace headers.
package proxy
