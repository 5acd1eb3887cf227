package webclient

import "time"

type Client string

const (
	ClientNetHTTP  Client = "nethttp"
	ClientCallback Client = "callback"
	ClientChromedp Client = "chromedp"
)

const defaultTimeout = 30 * time.Second

// Config is what a backend constructor needs. It is embedded in app.Config
// without creating an import cycle.
type Config struct {
	Client Client `yaml:"client"`

	// Timeout bounds a single request; zero means 30s.
	Timeout time.Duration `yaml:"timeout"`

	// ShowBrowser runs the chromedp backend with a visible window.
	ShowBrowser bool `yaml:"show_browser"`

	UserAgent string `yaml:"user_agent"`
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}
