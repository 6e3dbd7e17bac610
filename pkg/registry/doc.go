// Package registry tracks the backend modules the gateway proxies to.
//
// Modules are registered as instances (descriptor plus a unique instance
// id) against a Store. Two stores are provided: an in-memory store for
// tests and single-run deployments, and a SQLite-backed store that
// survives restarts. ChainForPath resolves the ordered module chain for an
// inbound request path by prefix match, preserving registration order.
//
// A cron-driven Sweeper removes instances that have not reported in within
// a configured TTL.
package registry
