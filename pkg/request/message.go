package request

import "fmt"

// Message is the JSON body returned for simple responses.
type Message struct {
	Message string `json:"message"`
}

// NewMessage creates a new Message, formatting it when args are given.
func NewMessage(message string, args ...any) *Message {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &Message{
		Message: message,
	}
}

// MessageError is the JSON body returned when a request failed with an error worth showing the client.
type MessageError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewMessageError(message string, err error) *MessageError {
	me := &MessageError{
		Message: message,
	}
	if err != nil {
		me.Error = err.Error()
	}
	return me
}
