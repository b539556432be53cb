package pep

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/argus-authz/pep-client-go/internal/logging"
)

func parseLogLevel(s string) (logging.Level, error) {
	switch s {
	case "debug":
		return logging.LevelDebug, nil
	case "info", "":
		return logging.LevelInfo, nil
	case "warn":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	case "disabled":
		return logging.LevelDisabled, nil
	default:
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
}

// FileConfig is a YAML-loadable mirror of Options' endpoint and log-level
// fields, for applications that keep PEP endpoint settings in a config file
// alongside their own. LoadConfig populates it with the same defaults NewClient would use, then applies the
// file and environment overrides on top.
type FileConfig struct {
	Endpoint EndpointFileConfig `yaml:"endpoint"`
	Log      LogFileConfig      `yaml:"log"`
}

// EndpointFileConfig mirrors Options' endpoint-related fields.
type EndpointFileConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	SSLValidation     bool          `yaml:"ssl_validation"`
	SSLCipherList     []string      `yaml:"ssl_cipher_list"` // named TLS 1.3 suites, e.g. "TLS_AES_128_GCM_SHA256"
	ServerCert        string        `yaml:"server_cert"`
	ServerCAPath      string        `yaml:"server_capath"`
	ClientCert        string        `yaml:"client_cert"`
	ClientKey         string        `yaml:"client_key"`
	ClientKeyPassword string        `yaml:"client_key_password"`
}

// LogFileConfig mirrors Options' logging fields (LogOutput and LogHandler
// have no YAML-representable form and are left to With* options).
type LogFileConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error", or "disabled"
}

// cipherSuitesByName maps the option table's default TLS 1.3 cipher names
// onto their crypto/tls constants.
var cipherSuitesByName = map[string]uint16{
	"TLS_AES_128_GCM_SHA256":       tls.TLS_AES_128_GCM_SHA256,
	"TLS_AES_256_GCM_SHA384":       tls.TLS_AES_256_GCM_SHA384,
	"TLS_CHACHA20_POLY1305_SHA256": tls.TLS_CHACHA20_POLY1305_SHA256,
}

// LoadConfig reads and parses a YAML config file at path, applying
// PEP_ENDPOINT_URL and PEP_LOG_LEVEL environment overrides on top, and
// returns the result as a defaultConfig if path does not exist.
func LoadConfig(path string) (*FileConfig, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the caller, not request data
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading pep config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing pep config file: %w", err)
	}
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating pep config file: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *FileConfig {
	d := defaultOptions()
	return &FileConfig{
		Endpoint: EndpointFileConfig{
			Timeout:       d.EndpointTimeout,
			SSLValidation: d.EndpointSSLValidation,
			SSLCipherList: []string{"TLS_AES_128_GCM_SHA256", "TLS_AES_256_GCM_SHA384", "TLS_CHACHA20_POLY1305_SHA256"},
		},
		Log: LogFileConfig{Level: "info"},
	}
}

func (c *FileConfig) applyEnvOverrides() {
	if v := os.Getenv("PEP_ENDPOINT_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("PEP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *FileConfig) validate() error {
	if c.Endpoint.URL == "" {
		return fmt.Errorf("endpoint.url is required")
	}
	if c.Endpoint.Timeout <= 0 {
		return fmt.Errorf("endpoint.timeout must be positive")
	}
	for _, name := range c.Endpoint.SSLCipherList {
		if _, ok := cipherSuitesByName[name]; !ok {
			return fmt.Errorf("endpoint.ssl_cipher_list: unknown cipher suite %q", name)
		}
	}
	return nil
}

// Options converts c into the Option slice NewClient expects.
func (c *FileConfig) Options() ([]Option, error) {
	opts := []Option{
		WithEndpointURL(c.Endpoint.URL),
		WithEndpointTimeout(c.Endpoint.Timeout),
		WithEndpointSSLValidation(c.Endpoint.SSLValidation),
	}
	if len(c.Endpoint.SSLCipherList) > 0 {
		ciphers := make([]uint16, 0, len(c.Endpoint.SSLCipherList))
		for _, name := range c.Endpoint.SSLCipherList {
			id, ok := cipherSuitesByName[name]
			if !ok {
				return nil, newErr(ErrOptionInvalid, fmt.Sprintf("unknown cipher suite %q", name), nil)
			}
			ciphers = append(ciphers, id)
		}
		opts = append(opts, WithEndpointSSLCipherList(ciphers))
	}
	if c.Endpoint.ServerCert != "" {
		opts = append(opts, WithEndpointServerCert(c.Endpoint.ServerCert))
	}
	if c.Endpoint.ServerCAPath != "" {
		opts = append(opts, WithEndpointServerCAPath(c.Endpoint.ServerCAPath))
	}
	if c.Endpoint.ClientCert != "" {
		opts = append(opts, WithEndpointClientCert(c.Endpoint.ClientCert))
	}
	if c.Endpoint.ClientKey != "" {
		opts = append(opts, WithEndpointClientKey(c.Endpoint.ClientKey))
	}
	if c.Endpoint.ClientKeyPassword != "" {
		opts = append(opts, WithEndpointClientKeyPassword([]byte(c.Endpoint.ClientKeyPassword)))
	}
	if lvl, err := parseLogLevel(c.Log.Level); err == nil {
		opts = append(opts, WithLogLevel(lvl))
	} else if c.Log.Level != "" {
		return nil, newErr(ErrOptionInvalid, err.Error(), nil)
	}
	return opts, nil
}
