package gateway

import (
	"fmt"
	"math/rand"
	"regexp"
)

// IDSource produces the random component of a request identifier, in the
// range [0, 1000000). It is injectable so tests can pin the value.
type IDSource func() int

// defaultIDSource draws from the shared math/rand source.
func defaultIDSource() int {
	return rand.Intn(1000000)
}

// pathFragmentPattern reduces a request path to its first segment. A
// leading "/_" segment is consumed before the capture, and anything after
// the first segment, including a query string, is dropped. When rerouting,
// the query can appear as part of the path, hence the '?'.
var pathFragmentPattern = regexp.MustCompile(`^(/_)?(/[^/?]+).*$`)

// PathFragment reduces path to the short fragment used in request
// identifiers. A path the pattern does not match, such as "" or "/", is
// returned unchanged, mirroring a replace-first substitution.
//
//	/_/foo/bar/baz?q=1 -> /foo
//	/mod/id/sub?x=1    -> /mod
//	""                 -> ""
//	/                  -> /
func PathFragment(path string) string {
	m := pathFragmentPattern.FindStringSubmatch(path)
	if m == nil {
		return path
	}
	return m[2]
}

// NewRequestID derives the correlation identifier for this hop from the
// request path and any identifier inherited from an upstream hop.
//
// The new fragment is a six-digit zero-padded random number followed by the
// path fragment. Without an inherited identifier the fragment is the whole
// identifier; otherwise the fragment is appended to the inherited value
// with a ";" separator, recording the chain of hops. The result is never
// empty.
func NewRequestID(path, inherited string, src IDSource) string {
	if src == nil {
		src = defaultIDSource
	}
	fragment := fmt.Sprintf("%06d", src()) + PathFragment(path)
	if inherited == "" {
		return fragment
	}
	return inherited + ";" + fragment
}
