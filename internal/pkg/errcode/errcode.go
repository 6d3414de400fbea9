package errcode

import "net/http"

// Kind classifies a failure at the handler boundary.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindClientInput
	KindAuth
	KindNotFound
)

// HTTPStatus maps a kind onto the status code sent to the caller.
// Unknown users get 401, the same as bad credentials.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindClientInput:
		return http.StatusBadRequest
	case KindAuth, KindNotFound:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindClientInput:
		return "client_input"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "infrastructure"
	}
}
