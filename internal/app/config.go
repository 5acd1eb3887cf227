package app

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raysh454/postdesk/internal/demoserver"
	"github.com/raysh454/postdesk/internal/logging"
	"github.com/raysh454/postdesk/internal/webclient"
)

// DefaultBaseURL is the public placeholder collection the actions talk to.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com/posts"

// Action names bound to the four front-end controls.
const (
	ActionFetch = "fetch"
	ActionXHR   = "xhr"
	ActionPost  = "post"
	ActionPut   = "put"
)

// ActionBinding fixes what one action does: which method, through which
// transport backend, against which path under the base URL. PUT appends the
// form id on its own, so its Path is normally empty.
type ActionBinding struct {
	Method  string           `yaml:"method"`
	Backend webclient.Client `yaml:"backend"`
	Path    string           `yaml:"path"`
}

// ServerConfig configures the web front-end.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the runtime configuration shared by every front-end.
type Config struct {
	BaseURL  string `yaml:"base_url"`
	LogLevel string `yaml:"log_level"`

	WebClient webclient.Config         `yaml:"webclient"`
	Actions   map[string]ActionBinding `yaml:"actions"`

	Server ServerConfig      `yaml:"server"`
	Demo   demoserver.Config `yaml:"demo"`
}

func defaultActions() map[string]ActionBinding {
	return map[string]ActionBinding{
		ActionFetch: {Method: http.MethodGet, Backend: webclient.ClientNetHTTP, Path: "/1"},
		ActionXHR:   {Method: http.MethodGet, Backend: webclient.ClientCallback, Path: "/2"},
		ActionPost:  {Method: http.MethodPost, Backend: webclient.ClientNetHTTP},
		ActionPut:   {Method: http.MethodPut, Backend: webclient.ClientNetHTTP},
	}
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		LogLevel: "info",
		WebClient: webclient.Config{
			Client:  webclient.ClientNetHTTP,
			Timeout: 30 * time.Second,
		},
		Actions: defaultActions(),
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Demo: demoserver.DefaultConfig(),
	}
}

// LoadConfig overlays the YAML file at path on DefaultConfig. Action entries
// are merged field by field, so a file may change only the backend of "put".
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	overrides := file.Actions

	// Second decode onto the defaults keeps fields the file leaves out.
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Actions = defaultActions()
	for name, o := range overrides {
		b := cfg.Actions[name]
		if o.Method != "" {
			b.Method = o.Method
		}
		if o.Backend != "" {
			b.Backend = o.Backend
		}
		if o.Path != "" {
			b.Path = o.Path
		}
		cfg.Actions[name] = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the base URL is absolute and every action is runnable.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	backends := webclient.ListBackends()
	for name, b := range c.Actions {
		switch strings.ToUpper(b.Method) {
		case http.MethodGet, http.MethodPost, http.MethodPut:
		default:
			errs = append(errs, fmt.Errorf("action %q: unsupported method %q", name, b.Method))
		}
		if b.Backend != "" && !slices.Contains(backends, string(b.Backend)) {
			errs = append(errs, fmt.Errorf("action %q: %w: %s", name, webclient.ErrBackendNotRegistered, b.Backend))
		}
	}
	return errors.Join(errs...)
}

// ActionNames returns the configured actions in a stable order.
func (c *Config) ActionNames() []string {
	names := make([]string, 0, len(c.Actions))
	for name := range c.Actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
