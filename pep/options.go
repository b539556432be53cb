package pep

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/argus-authz/pep-client-go/internal/logging"
)

// OptionID identifies one entry of the option table, preserving the
// original id-plus-argument dispatch contract for callers migrating from
// the C API's set-option call. Idiomatic Go callers should prefer the
// With* functional options below instead.
type OptionID int

const (
	OptionEndpointURL OptionID = iota
	OptionEndpointTimeout
	OptionEndpointSSLValidation
	OptionEndpointSSLCipherList
	OptionEndpointServerCert
	OptionEndpointServerCAPath
	OptionEndpointClientCert
	OptionEndpointClientKey
	OptionEndpointClientKeyPassword
	OptionEnablePreProcessors
	OptionEnablePostProcessors
	OptionLogLevel
	OptionLogOutput
	OptionLogHandler
)

// Options mirrors the option table of spec.md §4.7 field for field.
type Options struct {
	EndpointURL               string
	EndpointTimeout           time.Duration
	EndpointSSLValidation     bool
	EndpointSSLCipherList     []uint16
	EndpointServerCert        string
	EndpointServerCAPath      string
	EndpointClientCert        string
	EndpointClientKey         string
	EndpointClientKeyPassword []byte // zeroed on replace/destroy, never a string
	EnablePreProcessors       bool
	EnablePostProcessors      bool
	LogLevel                  logging.Level
	LogOutput                 io.Writer
	LogHandler                slog.Handler
}

// defaultOptions returns the option table's defaults (spec.md §4.7).
func defaultOptions() Options {
	return Options{
		EndpointTimeout:       30 * time.Second,
		EndpointSSLValidation: true,
		// The three TLS 1.3 suites. crypto/tls does not apply CipherSuites
		// to TLS 1.3 and always uses (EC)DHE key exchange there, so this
		// default does not exclude ECDH.
		EndpointSSLCipherList: []uint16{
			tls.TLS_AES_128_GCM_SHA256,
			tls.TLS_AES_256_GCM_SHA384,
			tls.TLS_CHACHA20_POLY1305_SHA256,
		},
		EnablePreProcessors:  true,
		EnablePostProcessors: true,
		LogLevel:             logging.LevelInfo,
	}
}

// zeroClientKeyPassword overwrites the password bytes in place before the
// slice is discarded, satisfying the "zeroed on replace and on destroy"
// testable property.
func zeroClientKeyPassword(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Option is a functional option applied by NewClient. Each wraps exactly
// one SetOption call so the functional-option surface and the legacy
// SetOption surface can never drift apart.
type Option func(*Client) error

func WithEndpointURL(url string) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointURL, url) }
}

func WithEndpointTimeout(d time.Duration) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointTimeout, d) }
}

func WithEndpointSSLValidation(enabled bool) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointSSLValidation, enabled) }
}

func WithEndpointSSLCipherList(ciphers []uint16) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointSSLCipherList, ciphers) }
}

func WithEndpointServerCert(path string) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointServerCert, path) }
}

func WithEndpointServerCAPath(path string) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointServerCAPath, path) }
}

func WithEndpointClientCert(path string) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointClientCert, path) }
}

func WithEndpointClientKey(path string) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointClientKey, path) }
}

func WithEndpointClientKeyPassword(password []byte) Option {
	return func(c *Client) error { return c.SetOption(OptionEndpointClientKeyPassword, password) }
}

func WithPreProcessors(enabled bool) Option {
	return func(c *Client) error { return c.SetOption(OptionEnablePreProcessors, enabled) }
}

func WithPostProcessors(enabled bool) Option {
	return func(c *Client) error { return c.SetOption(OptionEnablePostProcessors, enabled) }
}

func WithLogLevel(level logging.Level) Option {
	return func(c *Client) error { return c.SetOption(OptionLogLevel, level) }
}

func WithLogOutput(w io.Writer) Option {
	return func(c *Client) error { return c.SetOption(OptionLogOutput, w) }
}

func WithLogHandler(h slog.Handler) Option {
	return func(c *Client) error { return c.SetOption(OptionLogHandler, h) }
}

// SetOption dispatches a single option-id/argument pair onto c.opts,
// preserving the original library's runtime option API. Each OptionID
// accepts one Go type (string, time.Duration, bool, []uint16, logging.Level,
// io.Writer or slog.Handler; the key password takes a []byte or a string),
// as checked in the cases below; a mismatch or an unknown id is an
// OptionInvalid error.
func (c *Client) SetOption(id OptionID, value any) error {
	switch id {
	case OptionEndpointURL:
		s, ok := value.(string)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-url requires a string", nil)
		}
		c.opts.EndpointURL = s
	case OptionEndpointTimeout:
		d, ok := value.(time.Duration)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-timeout requires a time.Duration", nil)
		}
		c.opts.EndpointTimeout = d
	case OptionEndpointSSLValidation:
		b, ok := value.(bool)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-ssl-validation requires a bool", nil)
		}
		c.opts.EndpointSSLValidation = b
	case OptionEndpointSSLCipherList:
		cl, ok := value.([]uint16)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-ssl-cipher-list requires a []uint16", nil)
		}
		c.opts.EndpointSSLCipherList = cl
	case OptionEndpointServerCert:
		s, ok := value.(string)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-server-cert requires a string", nil)
		}
		c.opts.EndpointServerCert = s
	case OptionEndpointServerCAPath:
		s, ok := value.(string)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-server-capath requires a string", nil)
		}
		c.opts.EndpointServerCAPath = s
	case OptionEndpointClientCert:
		s, ok := value.(string)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-client-cert requires a string", nil)
		}
		c.opts.EndpointClientCert = s
	case OptionEndpointClientKey:
		s, ok := value.(string)
		if !ok {
			return newErr(ErrOptionInvalid, "endpoint-client-key requires a string", nil)
		}
		c.opts.EndpointClientKey = s
	case OptionEndpointClientKeyPassword:
		b, ok := value.([]byte)
		if !ok {
			if s, isStr := value.(string); isStr {
				b = []byte(s)
			} else {
				return newErr(ErrOptionInvalid, "endpoint-client-keypassword requires a []byte or string", nil)
			}
		}
		if c.opts.EndpointClientKeyPassword != nil {
			zeroClientKeyPassword(c.opts.EndpointClientKeyPassword)
		}
		c.opts.EndpointClientKeyPassword = b
	case OptionEnablePreProcessors:
		b, ok := value.(bool)
		if !ok {
			return newErr(ErrOptionInvalid, "enable-pre-processors requires a bool", nil)
		}
		c.opts.EnablePreProcessors = b
	case OptionEnablePostProcessors:
		b, ok := value.(bool)
		if !ok {
			return newErr(ErrOptionInvalid, "enable-post-processors requires a bool", nil)
		}
		c.opts.EnablePostProcessors = b
	case OptionLogLevel:
		lvl, ok := value.(logging.Level)
		if !ok {
			return newErr(ErrOptionInvalid, "log-level requires a logging.Level", nil)
		}
		c.opts.LogLevel = lvl
		c.opts.LogOutput = nil
		c.opts.LogHandler = nil
		logging.SetLevel(lvl)
	case OptionLogOutput:
		w, ok := value.(io.Writer)
		if !ok {
			return newErr(ErrOptionInvalid, "log-output requires an io.Writer", nil)
		}
		c.opts.LogOutput = w
		c.opts.LogHandler = nil
		logging.SetOutput(w, c.opts.LogLevel)
	case OptionLogHandler:
		h, ok := value.(slog.Handler)
		if !ok {
			return newErr(ErrOptionInvalid, "log-handler requires an slog.Handler", nil)
		}
		c.opts.LogHandler = h
		c.opts.LogOutput = nil
		logging.SetHandler(h)
	default:
		return newErr(ErrOptionInvalid, fmt.Sprintf("unknown option id %d", id), nil)
	}
	return nil
}

// destroyOptions zeroes the client-key password, matching spec.md §4.7's
// Destroy contract ("releases all owned option strings, zeroing the key
// password").
func (o *Options) destroyOptions() {
	if o.EndpointClientKeyPassword != nil {
		zeroClientKeyPassword(o.EndpointClientKeyPassword)
		o.EndpointClientKeyPassword = nil
	}
}
