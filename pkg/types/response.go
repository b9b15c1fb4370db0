package types

// APIError is the error payload the server wraps failures in.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the top-level error response shape.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
