package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failure. Message is always the code's
// public message; Details only appear for codes that allow them.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
