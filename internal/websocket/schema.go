package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionExamStart Action = "exam:start"
	ActionAutosave  Action = "autosave"
	ActionPing      Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ExamStartRequest opens (or resumes) an attempt over the socket and
// returns the attempt window.
type ExamStartRequest struct {
	Action Action `json:"action"`
	ExamID string `json:"exam_id"`
}

// AutosaveRequest is sent by the client to buffer a single answer.
type AutosaveRequest struct {
	Action         Action `json:"action"`
	ExamID         string `json:"exam_id"`
	QID            string `json:"q_id"`
	SelectedOption string `json:"selected_option,omitempty"`
	AnswerText     string `json:"answer_text,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError         Event = "error"
	EventSuccess       Event = "success"
	EventPong          Event = "pong"
	EventAutoSubmitted Event = "exam:autoSubmitted"
)

type SuccessResponse struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// AutoSubmittedEvent notifies the client that the server force-closed
// an attempt whose window or disconnect grace lapsed.
type AutoSubmittedEvent struct {
	Event  Event  `json:"event"`
	ExamID string `json:"exam_id"`
}
