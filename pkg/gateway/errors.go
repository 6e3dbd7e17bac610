package gateway

import "net/http"

// ErrorKind classifies a gateway failure for response purposes.
type ErrorKind int

const (
	// ErrorKindInternal is an unexpected failure inside the gateway or a
	// backend module.
	ErrorKindInternal ErrorKind = iota

	// ErrorKindUser is a request the caller got wrong.
	ErrorKindUser

	// ErrorKindNotFound means no module or resource matched the request.
	ErrorKindNotFound

	// ErrorKindUnauthorized means the caller has not authenticated.
	ErrorKindUnauthorized

	// ErrorKindForbidden means the caller is authenticated but not allowed.
	ErrorKindForbidden
)

// nullCauseMessage is rendered when an error response is produced from a
// cause that carries no message. The exact text is relied on by
// compatibility tests.
const nullCauseMessage = "(null cause!!??)"

// HTTPStatus maps the kind to its response status code. Unknown kinds map
// to 500.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrorKindUser:
		return http.StatusBadRequest
	case ErrorKindNotFound:
		return http.StatusNotFound
	case ErrorKindUnauthorized:
		return http.StatusUnauthorized
	case ErrorKindForbidden:
		return http.StatusForbidden
	case ErrorKindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// String returns the kind name for logs.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUser:
		return "user"
	case ErrorKindNotFound:
		return "not_found"
	case ErrorKindUnauthorized:
		return "unauthorized"
	case ErrorKindForbidden:
		return "forbidden"
	case ErrorKindInternal:
		return "internal"
	default:
		return "internal"
	}
}
