package response

// Response is the standard API envelope shared by every endpoint.
type Response struct {
	Status  string      `json:"status"` // "success" or "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success returns a success envelope wrapping the data.
func Success(message string, data interface{}) Response {
	return Response{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// Error returns an error envelope with a client-facing message.
func Error(message string) Response {
	return Response{
		Status:  "error",
		Message: message,
	}
}

// ErrorWithData returns an error envelope carrying extra fields, e.g. the
// remaining login attempts on a failed login.
func ErrorWithData(message string, data interface{}) Response {
	return Response{
		Status:  "error",
		Message: message,
		Data:    data,
	}
}
