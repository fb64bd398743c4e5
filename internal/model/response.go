package model

// Response is the envelope for non-2xx API replies and rate limit rejections
type Response struct {
	Data    interface{} `json:"data,omitempty"`
	Error   *string     `json:"error,omitempty"`
	Message string      `json:"message"`
}

// ErrorResponse builds an error envelope with the given detail and message.
func ErrorResponse(detail, message string) Response {
	return Response{Error: &detail, Message: message}
}
