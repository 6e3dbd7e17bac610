package proxy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/gateway"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// ChainResolver resolves the ordered list of modules that serve a request
// path. *registry.Registry satisfies this interface.
type ChainResolver interface {
	ChainForPath(path string) ([]registry.ModuleDescriptor, error)
}

// Handler forwards client requests through the module chain resolved from
// the registry. Each hop gets its own timer and trace header line; the
// response of the final module in the chain is relayed to the client.
type Handler struct {
	resolver ChainResolver
	client   *http.Client
	requests *metrics.RequestMetrics
	ctxOpts  gateway.Options
}

// HandlerConfig carries the dependencies for a gateway Handler.
type HandlerConfig struct {
	Resolver ChainResolver
	Requests *metrics.RequestMetrics

	// BackendTimeout bounds each call to a backend module. Zero means
	// no timeout.
	BackendTimeout time.Duration

	// Context holds the options applied to every request context
	// created by the handler.
	Context gateway.Options
}

// NewHandler creates a gateway handler. When no timer sink is provided a
// private unregistered one is used so request contexts can always measure.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Context.Timers == nil {
		cfg.Context.Timers = metrics.NewTimerMetrics(&metrics.Config{}, prometheus.NewRegistry())
	}
	return &Handler{
		resolver: cfg.Resolver,
		client:   &http.Client{Timeout: cfg.BackendTimeout},
		requests: cfg.Requests,
		ctxOpts:  cfg.Context,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pc := gateway.NewRequestContext(w, r, h.ctxOpts)
	defer pc.Close()

	if tenant := r.Header.Get(gateway.HeaderTenant); tenant != "" {
		pc.SetTenant(tenant)
	}

	chain, err := h.resolver.ChainForPath(r.URL.Path)
	if err != nil {
		h.recordError(http.StatusInternalServerError)
		pc.ResponseErrorKind(gateway.ErrorKindInternal, err)
		return
	}
	if len(chain) == 0 {
		h.recordError(http.StatusNotFound)
		pc.ResponseErrorKind(gateway.ErrorKindNotFound,
			fmt.Errorf("no module handles path %s", r.URL.Path))
		return
	}

	refs := make([]gateway.ModuleRef, len(chain))
	for i, md := range chain {
		refs[i] = md
	}
	pc.SetModules(refs)
	pc.LogRequest()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.recordError(http.StatusBadRequest)
		pc.ResponseErrorKind(gateway.ErrorKindUser,
			fmt.Errorf("reading request body: %w", err))
		return
	}

	var last *http.Response
	var lastBody []byte
	for i, md := range chain {
		pc.StartTimer("proxy." + md.ID)

		res, resBody, err := h.callModule(pc, r, md, body)
		if err != nil {
			h.recordError(http.StatusInternalServerError)
			// ResponseErrorKind logs the RES line with the still-open
			// timer's elapsed time, then closes it.
			pc.ResponseErrorKind(gateway.ErrorKindInternal, err)
			return
		}

		pc.PassTraceHeaders(res.Header)
		pc.AddTraceHeaderLine(fmt.Sprintf("%s %s %s : %d %s",
			r.Method, md.ID, md.URL, res.StatusCode, pc.TimeDiff()))
		pc.LogResponse(md.ID, md.URL, res.StatusCode)
		pc.CloseTimer()
		if h.requests != nil {
			h.requests.RecordCall(md.ID, res.StatusCode)
		}

		last, lastBody = res, resBody

		// A non-2xx from any hop ends the chain and is relayed as-is.
		if res.StatusCode >= 300 {
			break
		}

		// Intermediate hops may rewrite the body for the next hop.
		if i < len(chain)-1 && len(resBody) > 0 {
			body = resBody
		}
	}

	relay(w, last, lastBody)
}

// callModule forwards the request to a single backend module and returns
// the response with its fully read body.
func (h *Handler) callModule(pc *gateway.RequestContext, r *http.Request, md registry.ModuleDescriptor, body []byte) (*http.Response, []byte, error) {
	url := strings.TrimSuffix(md.URL, "/") + r.URL.RequestURI()

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("building request for %s: %w", md.ID, err)
	}
	copyRequestHeaders(req.Header, r.Header)
	req.Header.Set(gateway.HeaderRequestID, pc.RequestID())
	if tenant := pc.Tenant(); tenant != "" && tenant != "-" {
		req.Header.Set(gateway.HeaderTenant, tenant)
	}

	res, err := h.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("calling module %s: %w", md.ID, err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response from %s: %w", md.ID, err)
	}
	return res, resBody, nil
}

func (h *Handler) recordError(status int) {
	if h.requests != nil {
		h.requests.RecordError(status)
	}
}

// relay writes a backend response to the client.
func relay(w http.ResponseWriter, res *http.Response, body []byte) {
	if res == nil {
		return
	}
	for k, vs := range res.Header {
		if isHopByHopHeader(k) {
			continue
		}
		// Diagnostic headers were already merged by PassTraceHeaders.
		if _, ok := w.Header()[http.CanonicalHeaderKey(k)]; ok {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(body)
}

// copyRequestHeaders copies client headers to the outbound request,
// skipping hop-by-hop headers that must not be forwarded.
func copyRequestHeaders(dst, src http.Header) {
	for k, vs := range src {
		if isHopByHopHeader(k) {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func isHopByHopHeader(key string) bool {
	_, ok := hopByHopHeaders[http.CanonicalHeaderKey(key)]
	return ok
}
