package llm

import "fmt"

// Fixed outcome messages.
const (
	MsgEmptyInput   = "Prompt or API Key was empty."
	MsgNoConnection = "HTTP Request Failed: No connection or invalid response."
	MsgUnknown      = "Unknown error."
)

// Kind classifies how a request ended.
type Kind int

const (
	// KindNone marks a successful outcome.
	KindNone Kind = iota
	// KindInput is an empty prompt or credential; no I/O happened.
	KindInput
	// KindTransport is a connection-level failure with no response.
	KindTransport
	// KindHTTPStatus is a non-2xx response.
	KindHTTPStatus
	// KindParse is a 2xx body that is not a JSON object.
	KindParse
	// KindRemoteAPI is a JSON error payload with a message.
	KindRemoteAPI
	// KindUnclassified is a well-formed 2xx reply without a usable
	// candidate text, e.g. an empty or filtered candidates list.
	KindUnclassified
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindInput:
		return "input"
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindParse:
		return "parse"
	case KindRemoteAPI:
		return "remote_api"
	case KindUnclassified:
		return "unclassified"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one Generate call.
type Outcome struct {
	Text         string
	Succeeded    bool
	ErrorMessage string
	Kind         Kind
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
}

// Err returns nil for a successful outcome and an *Error otherwise.
func (o Outcome) Err() error {
	if o.Succeeded {
		return nil
	}
	return &Error{Kind: o.Kind, StatusCode: o.StatusCode, Message: o.ErrorMessage}
}

// Error is a failed Outcome as an error value.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

func success(text string, status int) Outcome {
	return Outcome{Text: text, Succeeded: true, Kind: KindNone, StatusCode: status}
}

func failure(kind Kind, status int, msg string) Outcome {
	return Outcome{Kind: kind, StatusCode: status, ErrorMessage: msg}
}
