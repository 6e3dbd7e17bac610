package gateway

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

// syncBuffer is a goroutine-safe log capture; the watchdog writes from its
// own goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeModule string

func (m fakeModule) ModuleID() string { return string(m) }

// fakeScheduler records the watchdog registration and lets tests drive
// ticks deterministically.
type fakeScheduler struct {
	interval time.Duration
	fn       func()
	started  int
	stopped  int
}

func (s *fakeScheduler) Every(interval time.Duration, fn func()) WatchdogHandle {
	s.interval = interval
	s.fn = fn
	s.started++
	return s
}

func (s *fakeScheduler) Stop() { s.stopped++ }

func (s *fakeScheduler) tick() { s.fn() }

type testEnv struct {
	out   *syncBuffer
	w     *httptest.ResponseRecorder
	opts  Options
	sched *fakeScheduler
}

func newTestEnv(t *testing.T, waitThreshold time.Duration) *testEnv {
	t.Helper()

	out := &syncBuffer{}
	logger, err := logging.New(logging.Config{Level: "trace", Format: "text", Writer: out})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}

	collector := metrics.NewCollector(&metrics.Config{Enabled: true}, prometheus.NewRegistry())
	sched := &fakeScheduler{}

	return &testEnv{
		out:   out,
		w:     httptest.NewRecorder(),
		sched: sched,
		opts: Options{
			Logger:        logger,
			Timers:        collector.Timers(),
			Scheduler:     sched,
			WaitThreshold: waitThreshold,
			IDSource:      func() int { return 42 },
		},
	}
}

func (e *testEnv) newContext(t *testing.T, r *http.Request) *RequestContext {
	t.Helper()
	c := NewRequestContext(e.w, r, e.opts)
	t.Cleanup(c.Close)
	return c
}

func TestNewRequestContext(t *testing.T) {
	t.Run("assigns fresh id and sets the header", func(t *testing.T) {
		env := newTestEnv(t, 0)
		r := httptest.NewRequest(http.MethodGet, "/mod/id/sub", nil)
		c := env.newContext(t, r)

		if c.RequestID() != "000042/mod" {
			t.Errorf("RequestID() = %q, want %q", c.RequestID(), "000042/mod")
		}
		if got := r.Header.Get(HeaderRequestID); got != "000042/mod" {
			t.Errorf("request header = %q, want %q", got, "000042/mod")
		}
		if got := env.w.Header().Get(HeaderRequestID); got != "000042/mod" {
			t.Errorf("response header = %q, want %q", got, "000042/mod")
		}
	})

	t.Run("extends inherited id and overwrites the header", func(t *testing.T) {
		env := newTestEnv(t, 0)
		r := httptest.NewRequest(http.MethodGet, "/foo/bar", nil)
		r.Header.Set(HeaderRequestID, "111111/up")
		c := env.newContext(t, r)

		want := "111111/up;000042/foo"
		if c.RequestID() != want {
			t.Errorf("RequestID() = %q, want %q", c.RequestID(), want)
		}
		if values := r.Header.Values(HeaderRequestID); len(values) != 1 || values[0] != want {
			t.Errorf("request header values = %v, want single %q", values, want)
		}
	})

	t.Run("random id has six digit prefix", func(t *testing.T) {
		env := newTestEnv(t, 0)
		env.opts.IDSource = nil
		r := httptest.NewRequest(http.MethodGet, "/users", nil)
		c := env.newContext(t, r)

		if !regexp.MustCompile(`^\d{6}/users$`).MatchString(c.RequestID()) {
			t.Errorf("RequestID() = %q, want ^\\d{6}/users$", c.RequestID())
		}
	})

	t.Run("absent url is treated as empty path", func(t *testing.T) {
		env := newTestEnv(t, 0)
		r := &http.Request{Method: http.MethodGet, Header: http.Header{}}
		c := env.newContext(t, r)

		if c.RequestID() != "000042" {
			t.Errorf("RequestID() = %q, want %q", c.RequestID(), "000042")
		}
	})

	t.Run("tenant defaults to placeholder", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/x", nil))

		if c.Tenant() != "-" {
			t.Errorf("Tenant() = %q, want %q", c.Tenant(), "-")
		}

		c.SetTenant("diku")
		if c.Tenant() != "diku" {
			t.Errorf("Tenant() = %q, want %q", c.Tenant(), "diku")
		}
	})
}

func TestTimerLifecycle(t *testing.T) {
	t.Run("TimeDiff is the sentinel when idle", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/x", nil))

		if got := c.TimeDiff(); got != "-" {
			t.Errorf("TimeDiff() = %q, want %q", got, "-")
		}
	})

	t.Run("TimeDiff formats microseconds while active", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/x", nil))

		c.StartTimer("proxy.mod-x")
		got := c.TimeDiff()
		if !regexp.MustCompile(`^\d+us$`).MatchString(got) {
			t.Errorf("TimeDiff() = %q, want ^\\d+us$", got)
		}
	})

	t.Run("TimeDiff peeks without finalizing", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/x", nil))

		c.StartTimer("proxy.mod-x")
		first := c.TimeDiff()
		second := c.TimeDiff()
		if first == "-" || second == "-" {
			t.Errorf("TimeDiff() finalized on read: first=%q second=%q", first, second)
		}
	})

	t.Run("CloseTimer returns to idle and is idempotent", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/x", nil))

		c.StartTimer("proxy.mod-x")
		c.CloseTimer()
		if got := c.TimeDiff(); got != "-" {
			t.Errorf("TimeDiff() after close = %q, want %q", got, "-")
		}

		c.CloseTimer()
		c.CloseTimer()
		if got := c.TimeDiff(); got != "-" {
			t.Errorf("TimeDiff() after repeated close = %q, want %q", got, "-")
		}
	})

	t.Run("StartTimer closes the previous measurement first", func(t *testing.T) {
		env := newTestEnv(t, time.Hour)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/x", nil))

		c.StartTimer("proxy.mod-a")
		c.StartTimer("proxy.mod-b")

		if env.sched.started != 2 {
			t.Errorf("watchdog registrations = %d, want 2", env.sched.started)
		}
		if env.sched.stopped != 1 {
			t.Errorf("watchdog cancellations = %d, want 1", env.sched.stopped)
		}
	})

	t.Run("no watchdog without a threshold", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/x", nil))

		c.StartTimer("proxy.mod-x")
		if env.sched.started != 0 {
			t.Errorf("watchdog registered despite zero threshold")
		}
	})
}

func TestWatchdog(t *testing.T) {
	t.Run("tick logs a WAIT line with request details", func(t *testing.T) {
		env := newTestEnv(t, 75*time.Millisecond)
		r := httptest.NewRequest(http.MethodPost, "/mod/op", nil)
		c := env.newContext(t, r)
		c.SetTenant("diku")

		c.StartTimer("proxy.mod-x")
		if env.sched.interval != 75*time.Millisecond {
			t.Errorf("watchdog interval = %v, want 75ms", env.sched.interval)
		}

		env.sched.tick()

		out := env.out.String()
		for _, want := range []string{"000042/mod", "WAIT", "diku", "POST", "/mod/op", r.RemoteAddr} {
			if !strings.Contains(out, want) {
				t.Errorf("WAIT line missing %q in output:\n%s", want, out)
			}
		}
	})

	t.Run("ticker watchdog fires while waiting and stops on close", func(t *testing.T) {
		env := newTestEnv(t, 0)
		env.opts.Scheduler = TickerScheduler{}
		env.opts.WaitThreshold = 20 * time.Millisecond
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/slow", nil))

		c.StartTimer("proxy.mod-slow")
		time.Sleep(70 * time.Millisecond)
		c.CloseTimer()

		if n := strings.Count(env.out.String(), "WAIT"); n < 2 {
			t.Errorf("WAIT lines = %d, want >= 2", n)
		}

		before := strings.Count(env.out.String(), "WAIT")
		time.Sleep(50 * time.Millisecond)
		if after := strings.Count(env.out.String(), "WAIT"); after != before {
			t.Errorf("WAIT lines advanced from %d to %d after CloseTimer", before, after)
		}
	})
}

func TestLogging(t *testing.T) {
	t.Run("LogRequest includes chain in order", func(t *testing.T) {
		env := newTestEnv(t, 0)
		r := httptest.NewRequest(http.MethodGet, "/mod/id", nil)
		c := env.newContext(t, r)
		c.SetTenant("diku")
		c.SetModules([]ModuleRef{fakeModule("mod-a"), fakeModule("mod-b")})

		c.LogRequest()

		out := env.out.String()
		if !strings.Contains(out, "REQ") {
			t.Fatalf("REQ tag missing:\n%s", out)
		}
		ia := strings.Index(out, "mod-a")
		ib := strings.Index(out, "mod-b")
		if ia < 0 || ib < 0 || ia > ib {
			t.Errorf("module chain order wrong (mod-a@%d, mod-b@%d):\n%s", ia, ib, out)
		}
	})

	t.Run("LogRequest with empty chain", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.LogRequest()
		if !strings.Contains(env.out.String(), "REQ") {
			t.Errorf("REQ tag missing:\n%s", env.out.String())
		}
	})

	t.Run("LogResponse includes status and elapsed time", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.StartTimer("proxy.mod-a")
		c.LogResponse("mod-a", "http://localhost:9131/mod", 200)

		out := env.out.String()
		if !strings.Contains(out, "RES 200") {
			t.Errorf("RES tag or status missing:\n%s", out)
		}
		if !strings.Contains(out, "mod-a http://localhost:9131/mod") {
			t.Errorf("module and url missing:\n%s", out)
		}
		if !regexp.MustCompile(`\d+us`).MatchString(out) {
			t.Errorf("elapsed time missing:\n%s", out)
		}
	})

	t.Run("severity helpers prefix the request id", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.Error("broken")
		c.Warn("odd")
		c.WarnCause("odd with cause", errors.New("boom"))
		c.Trace("detail")

		out := env.out.String()
		for _, want := range []string{
			"000042/mod broken",
			"000042/mod odd",
			"000042/mod odd with cause",
			"000042/mod detail",
			"boom",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})
}

func TestResponseError(t *testing.T) {
	t.Run("writes status and plain-text body and closes the timer", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.StartTimer("proxy.mod-a")
		c.ResponseError(400, "tenant missing")

		if env.w.Code != 400 {
			t.Errorf("status = %d, want 400", env.w.Code)
		}
		if env.w.Body.String() != "tenant missing" {
			t.Errorf("body = %q, want %q", env.w.Body.String(), "tenant missing")
		}
		if ct := env.w.Header().Get("Content-Type"); ct != "text/plain" {
			t.Errorf("content type = %q, want text/plain", ct)
		}
		if got := c.TimeDiff(); got != "-" {
			t.Errorf("timer still active after ResponseError: TimeDiff() = %q", got)
		}
		if !strings.Contains(env.out.String(), "okapi") {
			t.Errorf("RES line missing pseudo-module:\n%s", env.out.String())
		}
	})

	t.Run("nil cause renders the placeholder literal", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.ResponseErrorKind(ErrorKindInternal, nil)

		if env.w.Code != 500 {
			t.Errorf("status = %d, want 500", env.w.Code)
		}
		if env.w.Body.String() != "(null cause!!??)" {
			t.Errorf("body = %q, want %q", env.w.Body.String(), "(null cause!!??)")
		}
	})

	t.Run("empty cause message renders the placeholder literal", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.ResponseErrorKind(ErrorKindInternal, errors.New(""))

		if env.w.Body.String() != "(null cause!!??)" {
			t.Errorf("body = %q, want %q", env.w.Body.String(), "(null cause!!??)")
		}
	})

	t.Run("cause message becomes the body", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.ResponseErrorKind(ErrorKindNotFound, errors.New("no module for /mod"))

		if env.w.Code != 404 {
			t.Errorf("status = %d, want 404", env.w.Code)
		}
		if env.w.Body.String() != "no module for /mod" {
			t.Errorf("body = %q, want %q", env.w.Body.String(), "no module for /mod")
		}
	})
}

func TestErrorKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want int
	}{
		{ErrorKindUser, 400},
		{ErrorKindUnauthorized, 401},
		{ErrorKindForbidden, 403},
		{ErrorKindNotFound, 404},
		{ErrorKindInternal, 500},
		{ErrorKind(99), 500},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTraceHeaders(t *testing.T) {
	t.Run("AddTraceHeaderLine appends", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		c.AddTraceHeaderLine("GET mod-a:200 120us")
		c.AddTraceHeaderLine("GET mod-b:200 80us")

		values := env.w.Header().Values(HeaderTrace)
		if len(values) != 2 {
			t.Errorf("trace values = %v, want two entries", values)
		}
	})

	t.Run("PassTraceHeaders filters through the allow-list", func(t *testing.T) {
		env := newTestEnv(t, 0)
		c := env.newContext(t, httptest.NewRequest(http.MethodGet, "/mod", nil))

		src := http.Header{}
		src.Set(HeaderTrace, "a")
		src.Set(HeaderTenantPermsResult, "b")
		src.Set("Other", "c")
		c.PassTraceHeaders(src)

		if got := env.w.Header().Get(HeaderTrace); got != "a" {
			t.Errorf("trace header = %q, want %q", got, "a")
		}
		if got := env.w.Header().Get(HeaderTenantPermsResult); got != "b" {
			t.Errorf("perms result header = %q, want %q", got, "b")
		}
		if got := env.w.Header().Get("Other"); got != "" {
			t.Errorf("unexpected header passed: Other=%q", got)
		}
	})
}
