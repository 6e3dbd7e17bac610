package gateway

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// responseErrorModule is the pseudo-module name logged for error responses
// generated by the gateway itself rather than a backend module.
const responseErrorModule = "okapi"

// idleTimeDiff is returned by TimeDiff when no measurement is active.
const idleTimeDiff = "-"

// Options configures a RequestContext.
type Options struct {
	// Logger receives all log lines for the request. Required.
	Logger *logging.Logger

	// Timers is the sink backend call measurements are recorded into.
	// Required.
	Timers *metrics.TimerMetrics

	// Scheduler runs the watchdog. Defaults to TickerScheduler.
	Scheduler Scheduler

	// WaitThreshold is the watchdog interval. Zero or negative disables
	// the watchdog.
	WaitThreshold time.Duration

	// IDSource overrides the random identifier source, for tests.
	IDSource IDSource
}

// RequestContext carries the things the gateway needs while proxying one
// inbound request: the correlation identifier, the tenant, the resolved
// module chain, and the active timer with its watchdog. It also provides
// the identifier-prefixed logging and error-response helpers so every line
// and error body for a request can be correlated.
//
// A context is built once per inbound request, before the tenant is known,
// and is driven by the single flow handling that request. The watchdog
// callback runs on its own goroutine; the mutex covers the state it reads.
type RequestContext struct {
	logger *logging.Logger
	timers *metrics.TimerMetrics
	sched  Scheduler

	w http.ResponseWriter

	reqID         string
	method        string
	path          string
	remoteAddr    string
	waitThreshold time.Duration

	mu       sync.Mutex
	tenant   string
	modules  []ModuleRef
	sample   *metrics.Sample
	watchdog WatchdogHandle
}

// NewRequestContext builds the context for an inbound request and assigns
// its correlation identifier, extending any identifier inherited via the
// HeaderRequestID header. The header on r is set to the assigned value so
// downstream hops inherit it, and the same header is set on the response so
// the client can quote the identifier. The request is not logged here; the
// tenant is not known yet.
func NewRequestContext(w http.ResponseWriter, r *http.Request, opts Options) *RequestContext {
	sched := opts.Scheduler
	if sched == nil {
		sched = TickerScheduler{}
	}

	path := ""
	if r.URL != nil {
		path = r.URL.Path
	}

	c := &RequestContext{
		logger:        opts.Logger,
		timers:        opts.Timers,
		sched:         sched,
		w:             w,
		method:        r.Method,
		path:          path,
		remoteAddr:    r.RemoteAddr,
		waitThreshold: opts.WaitThreshold,
		tenant:        "-",
	}

	inherited := r.Header.Get(HeaderRequestID)
	c.reqID = NewRequestID(path, inherited, opts.IDSource)
	r.Header.Set(HeaderRequestID, c.reqID)
	w.Header().Set(HeaderRequestID, c.reqID)
	if inherited == "" {
		c.Debug("assigned new request id")
	} else {
		c.Debug("appended request id")
	}

	return c
}

// RequestID returns the correlation identifier assigned at construction.
func (c *RequestContext) RequestID() string {
	return c.reqID
}

// Tenant returns the current tenant, "-" until resolved.
func (c *RequestContext) Tenant() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tenant
}

// SetTenant records the tenant once the gateway has resolved it.
func (c *RequestContext) SetTenant(tenant string) {
	c.mu.Lock()
	c.tenant = tenant
	c.mu.Unlock()
}

// Modules returns the module chain resolved so far, in invocation order.
func (c *RequestContext) Modules() []ModuleRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modules
}

// SetModules replaces the module chain.
func (c *RequestContext) SetModules(modules []ModuleRef) {
	c.mu.Lock()
	c.modules = modules
	c.mu.Unlock()
}

// AddModule appends one module to the chain.
func (c *RequestContext) AddModule(m ModuleRef) {
	c.mu.Lock()
	c.modules = append(c.modules, m)
	c.mu.Unlock()
}

// StartTimer begins a named measurement for a backend call. Any previous
// measurement is closed first, so at most one is ever active. If a wait
// threshold is configured, a watchdog fires at that interval for as long
// as the measurement stays open, logging a WAIT line so stalled requests
// surface before they complete.
func (c *RequestContext) StartTimer(key string) {
	c.CloseTimer()
	c.mu.Lock()
	c.sample = c.timers.Start(key)
	if c.waitThreshold > 0 {
		c.watchdog = c.sched.Every(c.waitThreshold, c.logWait)
	}
	c.mu.Unlock()
}

// CloseTimer cancels the watchdog and finalizes the active measurement,
// recording the sample. It is idempotent; with nothing active it is a
// no-op. Once it returns no further watchdog line will be logged for this
// cycle.
func (c *RequestContext) CloseTimer() {
	c.mu.Lock()
	watchdog := c.watchdog
	sample := c.sample
	c.watchdog = nil
	c.sample = nil
	c.mu.Unlock()

	// Stopped outside the mutex: an in-flight watchdog tick takes the
	// mutex to read the tenant.
	if watchdog != nil {
		watchdog.Stop()
	}
	if sample != nil {
		sample.Stop()
	}
}

// TimeDiff returns the elapsed time of the active measurement in
// microseconds, formatted like "1234us". It peeks without finalizing;
// CloseTimer is the sole finalizer, so repeated reads of one measurement
// record one sample. With no active measurement it returns "-".
func (c *RequestContext) TimeDiff() string {
	c.mu.Lock()
	sample := c.sample
	c.mu.Unlock()
	if sample == nil {
		return idleTimeDiff
	}
	return strconv.FormatInt(sample.Elapsed().Microseconds(), 10) + "us"
}

// Close releases any timer and watchdog still held by the context. Call it
// when the response is finalized.
func (c *RequestContext) Close() {
	c.CloseTimer()
}

// logWait is the watchdog tick.
func (c *RequestContext) logWait() {
	c.mu.Lock()
	tenant := c.tenant
	c.mu.Unlock()
	c.logger.Warn(c.reqID + " WAIT " + c.remoteAddr + " " + tenant + " " + c.method + " " + c.path)
}

// LogRequest logs one REQ line for the request: remote address, tenant,
// method, path, and the module identifiers currently in the chain.
func (c *RequestContext) LogRequest() {
	c.mu.Lock()
	tenant := c.tenant
	var mods strings.Builder
	for _, m := range c.modules {
		mods.WriteString(" ")
		mods.WriteString(m.ModuleID())
	}
	c.mu.Unlock()

	c.logger.Info(c.reqID + " REQ " + c.remoteAddr + " " + tenant +
		" " + c.method + " " + c.path + mods.String())
}

// LogResponse logs one RES line for a backend call: status, elapsed time
// of the active measurement, module identifier, and url.
func (c *RequestContext) LogResponse(module, url string, statusCode int) {
	c.logger.Info(c.reqID + " RES " + strconv.Itoa(statusCode) + " " +
		c.TimeDiff() + " " + module + " " + url)
}

// Error logs msg at error level, prefixed with the request identifier.
func (c *RequestContext) Error(msg string) {
	c.logger.Error(c.reqID + " " + msg)
}

// Warn logs msg at warn level, prefixed with the request identifier.
func (c *RequestContext) Warn(msg string) {
	c.logger.Warn(c.reqID + " " + msg)
}

// WarnCause logs msg and its cause at warn level, prefixed with the
// request identifier.
func (c *RequestContext) WarnCause(msg string, cause error) {
	c.logger.Warn(c.reqID+" "+msg, "error", cause)
}

// Debug logs msg at debug level, prefixed with the request identifier.
func (c *RequestContext) Debug(msg string) {
	c.logger.Debug(c.reqID + " " + msg)
}

// Trace logs msg at trace level, prefixed with the request identifier.
func (c *RequestContext) Trace(msg string) {
	c.logger.Trace(c.reqID + " " + msg)
}

// ResponseError terminates the request with statusCode and msg as the
// plain-text body. The response is logged as a RES line under the gateway
// pseudo-module and any active timer is closed first.
func (c *RequestContext) ResponseError(statusCode int, msg string) {
	c.LogResponse(responseErrorModule, msg, statusCode)
	c.CloseTimer()
	h := c.w.Header()
	h.Set("Content-Type", "text/plain")
	c.w.WriteHeader(statusCode)
	io.WriteString(c.w, msg)
}

// ResponseErrorKind terminates the request with the status code mapped
// from kind. The body is the cause's message; a nil cause or one with an
// empty message renders a fixed placeholder instead.
func (c *RequestContext) ResponseErrorKind(kind ErrorKind, cause error) {
	msg := nullCauseMessage
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	c.ResponseError(kind.HTTPStatus(), msg)
}

// AddTraceHeaderLine appends one value under the trace header of the
// outgoing response.
func (c *RequestContext) AddTraceHeaderLine(v string) {
	c.w.Header().Add(HeaderTrace, v)
}

// PassTraceHeaders copies the allow-listed diagnostic headers from a
// backend call's response headers into the outgoing response.
func (c *RequestContext) PassTraceHeaders(src http.Header) {
	CopyTraceHeaders(c.w.Header(), src)
}
