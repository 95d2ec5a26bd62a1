package invoke

import (
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/httputil"
)

// Request is the body of every entrypoint call. Normalize and Validate
// delegate to the payload so httputil.DecodeAndPrepare checks it.
type Request[T any] struct {
	Input T `json:"input"`
}

func (r *Request[T]) Normalize() {
	if n, ok := any(&r.Input).(httputil.Normalizable); ok {
		n.Normalize()
	}
}

func (r *Request[T]) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if v, ok := any(&r.Input).(httputil.Validatable); ok {
		return v.Validate()
	}
	return nil
}

// Response is the body of every successful entrypoint call.
type Response[T any] struct {
	Output T `json:"output"`
}

// EntrypointPath is the route of the entrypoint named key.
func EntrypointPath(key string) string {
	return "/entrypoints/" + key + "/invoke"
}
