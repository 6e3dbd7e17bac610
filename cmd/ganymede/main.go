// Ganymede is a small API gateway that proxies tenant requests through
// chains of backend modules.
//
// It assigns every request a correlation id, times each backend call,
// emits trace headers for cross-service debugging, and keeps a registry
// of backend module instances.
//
// Usage:
//
//	# Start the gateway with default configuration
//	ganymede run
//
//	# Start with a custom configuration file
//	ganymede run --config /path/to/config.yaml
//
//	# Show version information
//	ganymede version
package main

func main() {
	Execute()
}
