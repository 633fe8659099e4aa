package hashnode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse marks a 2xx response whose body is not a GraphQL
// envelope.
var ErrMalformedResponse = errors.New("malformed graphql response")

// StatusError is a non-2xx HTTP response from the endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// GraphQLError is one entry of the top level "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLErrors is an application error reported inside a successful HTTP
// response.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		msgs = append(msgs, ge.Message)
	}

	return "graphql: " + strings.Join(msgs, "; ")
}

// errorKind names the failure class for logs and metrics.
func errorKind(err error) string {
	var (
		statusErr *StatusError
		gqlErrs   GraphQLErrors
	)

	switch {
	case errors.As(err, &gqlErrs):
		return "graphql"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "transport"
	}
}
