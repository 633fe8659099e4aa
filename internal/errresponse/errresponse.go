// Package errresponse renders API failures as JSON payloads.
package errresponse

import (
	"net/http"

	"github.com/go-chi/render"
)

// Application codes carried in the "code" field of error payloads.
const (
	CodeInvalidLimit int64 = 1001
	CodeMissingTag   int64 = 1002
	CodePostNotFound int64 = 1004
	CodeRender       int64 = 1010
)

// ErrResponse is the error payload of the API. Err and HTTPStatusCode stay
// server side.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	AppCode    int64  `json:"code,omitempty"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)

	return nil
}

// ErrInvalidRequest is a 400 tagged with one of the Code constants.
func ErrInvalidRequest(code int64, err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		AppCode:        code,
		ErrorText:      err.Error(),
	}
}

func ErrRender(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Error rendering response.",
		AppCode:        CodeRender,
		ErrorText:      err.Error(),
	}
}

var ErrNotFound = &ErrResponse{
	HTTPStatusCode: http.StatusNotFound,
	StatusText:     "Resource not found.",
	AppCode:        CodePostNotFound,
}
