package invoker

import "encoding/json"

// Kind tags an Outcome.
type Kind string

const (
	KindSuccess      Kind = "success"
	KindClientError  Kind = "client_error"
	KindServerError  Kind = "server_error"
	KindNetworkError Kind = "network_error"
)

// NetworkErrorMessage is the Message of every network Outcome. The
// transport's own error text is logged, not stored, so that different
// backends report identical Outcomes.
const NetworkErrorMessage = "Failed to fetch"

// MissingFieldsMessage is the ClientError message for a failed presence check.
const MissingFieldsMessage = "All fields are required."

// Outcome is the result of one invocation. Only the fields that belong to
// Kind are set:
//
//	KindSuccess      Payload
//	KindClientError  Message
//	KindServerError  StatusCode, StatusText
//	KindNetworkError Message
//
// Method and URL describe the originating request on every kind.
type Outcome struct {
	Kind   Kind   `json:"kind"`
	Method string `json:"method"`
	URL    string `json:"url,omitempty"`

	Payload    json.RawMessage `json:"payload,omitempty"`
	Message    string          `json:"message,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
	StatusText string          `json:"status_text,omitempty"`
}

func Success(method, url string, payload json.RawMessage) Outcome {
	return Outcome{Kind: KindSuccess, Method: method, URL: url, Payload: payload}
}

func ClientError(method, url, message string) Outcome {
	return Outcome{Kind: KindClientError, Method: method, URL: url, Message: message}
}

func ServerError(method, url string, status int, statusText string) Outcome {
	return Outcome{Kind: KindServerError, Method: method, URL: url, StatusCode: status, StatusText: statusText}
}

func NetworkError(method, url string) Outcome {
	return Outcome{Kind: KindNetworkError, Method: method, URL: url, Message: NetworkErrorMessage}
}

// IsError reports whether the outcome is one of the three failure kinds.
func (o Outcome) IsError() bool {
	return o.Kind != KindSuccess
}
