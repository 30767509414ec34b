package models

// ErrorResponse defines API error response format
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// StartRequest is the body of POST /launcher/api/v1/server/start
type StartRequest struct {
	Port int `json:"port"`
}

// ActionResult reports the outcome of an OS integration call
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LogLine is one entry of the server output history
type LogLine struct {
	Seq  int64  `json:"seq"`
	Time string `json:"time"`
	Text string `json:"text"`
}
