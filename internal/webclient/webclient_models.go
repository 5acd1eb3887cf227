package webclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Request struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

type Response struct {
	Request    *Request
	Headers    http.Header
	Body       []byte
	StatusCode int
	// StatusText is the reason phrase, e.g. "Not Found".
	StatusText string
	FetchedAt  time.Time
}

// reasonPhrase strips the numeric code from a status line such as
// "404 Not Found". Servers and browsers may omit the phrase (HTTP/2 never
// sends one), in which case the standard text for the code is used.
func reasonPhrase(status string, code int) string {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(status), strconv.Itoa(code)))
	if text == "" {
		text = http.StatusText(code)
	}
	return text
}
