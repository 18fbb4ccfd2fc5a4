package testing

import (
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/LeJamon/goAMM/internal/core/ter"
)

// CallResult represents the result of submitting a call.
type CallResult struct {
	// Code is the engine result code.
	Code ter.Result

	// Success indicates whether the call was applied.
	Success bool

	// Message provides additional details about the result.
	Message string

	// Response is what the target returned; nil on failure.
	Response *runtime.Response
}

func newCallResult(r runtime.ApplyResult) CallResult {
	return CallResult{
		Code:     r.Result,
		Success:  r.Applied || r.Result.IsSuccess(),
		Message:  r.Message,
		Response: r.Response,
	}
}

// Data returns the response data, or nil.
func (r CallResult) Data() []byte {
	if r.Response == nil {
		return nil
	}
	return r.Response.Data
}
