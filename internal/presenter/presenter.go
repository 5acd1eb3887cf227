// Package presenter maps invoker Outcomes to the text shown on a display.
package presenter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/raysh454/postdesk/internal/invoker"
)

const NetworkErrorText = "Network Error: Unable to reach the server. Please check your internet connection."

// DisplayMessage is one formatted block for the display surface.
type DisplayMessage struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

// Present is a pure mapping from an Outcome to its DisplayMessage.
func Present(out invoker.Outcome) DisplayMessage {
	switch out.Kind {
	case invoker.KindSuccess:
		if out.Method == http.MethodGet {
			return DisplayMessage{Text: readText(out.Payload)}
		}
		return DisplayMessage{Text: writeText(out.Method, out.Payload)}
	case invoker.KindClientError:
		return DisplayMessage{Text: "Client Error: " + out.Message, IsError: true}
	case invoker.KindServerError:
		return DisplayMessage{
			Text:    fmt.Sprintf("Server Error (%d): %s", out.StatusCode, out.StatusText),
			IsError: true,
		}
	case invoker.KindNetworkError:
		return DisplayMessage{Text: NetworkErrorText, IsError: true}
	default:
		return DisplayMessage{Text: fmt.Sprintf("Error: unknown outcome %q", out.Kind), IsError: true}
	}
}

// PresentError renders a failure that has no Outcome kind, such as a
// malformed success body.
func PresentError(err error) DisplayMessage {
	return DisplayMessage{Text: "Error: " + err.Error(), IsError: true}
}

// Render shows the presented outcome on d.
func Render(d Display, out invoker.Outcome) DisplayMessage {
	msg := Present(out)
	d.Show(msg)
	return msg
}

func readText(payload json.RawMessage) string {
	var fields map[string]json.RawMessage
	// Non-object payloads leave fields nil so both values read as undefined.
	_ = json.Unmarshal(payload, &fields)
	return "Title: " + fieldText(fields, "title") + "\n\nBody: " + fieldText(fields, "body")
}

func fieldText(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return "undefined"
	}
	// null would otherwise decode into the empty string.
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "null"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

func writeText(method string, payload json.RawMessage) string {
	verb := "Created"
	if method == http.MethodPut {
		verb = "Updated"
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(payload)
	}
	return "Post " + verb + " Successfully:\n\n" + pretty.String()
}
