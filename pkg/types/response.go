package types

// Envelope is the single response shape every EVDMS endpoint emits. Clients
// branch on Success and never have to guess at the payload shape.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Ok wraps a payload in a success envelope.
func Ok(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail builds a failure envelope with a machine code and a human message.
func Fail(code, message string) Envelope {
	return Envelope{Success: false, Code: code, Message: message}
}
