// Package gateway implements the per-request correlation, timing, and
// logging context at the heart of the Ganymede proxy.
//
// A RequestContext is created once per inbound request. It assigns or
// extends the correlation identifier carried in the X-Okapi-Request-Id
// header, measures elapsed time around each backend module call (with an
// optional watchdog that logs WAIT lines while a call stalls past a
// configured threshold), copies allow-listed diagnostic headers from
// backend responses into the outward response, and prefixes every log line
// and error body with the request identifier so a whole request can be
// correlated across hops.
//
// The context raises no errors of its own: absent paths, missing inherited
// identifiers, and double closes are all absorbed. User-visible failures
// are surfaced only through ResponseError, which always terminates the
// response with a status code and a plain-text body.
package gateway
