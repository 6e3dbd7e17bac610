package gateway

import "net/http"

// Header names on the gateway wire. These are part of the protocol and must
// be preserved exactly.
const (
	// HeaderRequestID carries the correlation identifier across gateway hops.
	HeaderRequestID = "X-Okapi-Request-Id"

	// HeaderTrace reports backend-call provenance back to the caller.
	HeaderTrace = "X-Okapi-Trace"

	// HeaderTenant identifies the tenant a request belongs to.
	HeaderTenant = "X-Okapi-Tenant"

	// HeaderTenantPermsResult is set by the permissions module and passed
	// through for test support.
	HeaderTenantPermsResult = "X-Tenant-Perms-Result"
)

// CopyTraceHeaders copies the diagnostic response headers from a backend
// call into dst. Only HeaderTrace and HeaderTenantPermsResult are copied;
// names are matched case-insensitively and values are appended, never
// replaced. src is not modified.
func CopyTraceHeaders(dst, src http.Header) {
	for name, values := range src {
		canonical := http.CanonicalHeaderKey(name)
		if canonical != HeaderTrace && canonical != HeaderTenantPermsResult {
			continue
		}
		for _, v := range values {
			dst.Add(canonical, v)
		}
	}
}
