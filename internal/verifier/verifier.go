package verifier

import "context"

// Synthetic error codes reported when the endpoint could not give an answer.
// The endpoint's own codes ("invalid-input-secret", "timeout-or-duplicate", ...)
// are passed through untouched.
const (
	CodeMissingInputResponse = "missing-input-response"
	CodeConnectionError      = "connection-error"
	CodeInvalidJSON          = "invalid-json"
	CodeMalformedResponse    = "malformed-response"
)

// Result is the outcome of one verification. ErrorCodes is never nil on failure.
type Result struct {
	Success    bool
	ErrorCodes []string
}

func failure(codes ...string) Result {
	if codes == nil {
		codes = []string{}
	}
	return Result{Success: false, ErrorCodes: codes}
}

// Request carries the fields posted to the verification endpoint.
type Request struct {
	Secret   string
	Response string
	RemoteIP string
}

// Verifier checks a challenge token. Implementations report every failure
// through Result and never return an error.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) Result
}
