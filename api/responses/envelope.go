package responses

// RequestIDHeader carries the id the request middleware assigns. Error bodies repeat it
// so an operator can quote it from the terminal screen.
const RequestIDHeader = "X-Request-Id"

// Success wraps every 2xx JSON body.
type Success struct {
	Data any `json:"data"`
}

// ErrorBody is the client-facing description of a failed request.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Failure wraps every error body.
type Failure struct {
	Error ErrorBody `json:"error"`
}
