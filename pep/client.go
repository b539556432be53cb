package pep

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/argus-authz/pep-client-go/internal/b64"
	"github.com/argus-authz/pep-client-go/internal/buffer"
	"github.com/argus-authz/pep-client-go/internal/hessian"
	"github.com/argus-authz/pep-client-go/internal/logging"
	"github.com/argus-authz/pep-client-go/internal/metrics"
	"github.com/argus-authz/pep-client-go/internal/redact"
	"github.com/argus-authz/pep-client-go/internal/telemetry"
	"github.com/argus-authz/pep-client-go/plugin"
	"github.com/argus-authz/pep-client-go/xacml"
)

// debugRedactor scrubs attribute values before they reach the debug log, in
// case a caller passed a credential through as an attribute value.
var debugRedactor = redact.New()

// UserAgent identifies this library on the wire, per spec.md §4.7 step 4.
const UserAgent = "pep-client-go/1.0"

// nextClientID is the process-wide sequential client-id counter (spec.md
// §5: "process-wide... incremented during handle creation").
var nextClientID atomic.Uint64

// Client is an opaque authorization handle: one configured endpoint, its
// transport, and its ordered plug-in chains. Safe for concurrent use by
// multiple goroutines (net/http.Client is); a single Client must not be
// shared in ways that race its SetOption calls against Authorize.
type Client struct {
	id   uint64
	opts Options

	httpClient *http.Client
	telemetry  *telemetry.Provider
	metrics    *metrics.Registry

	preChain  plugin.PreProcessorChain
	postChain plugin.PostProcessorChain

	destroyed bool
}

// NewClient creates a Client, applying opts in order via SetOption. The
// endpoint URL is mandatory; NewClient returns an error if it was never
// set by one of opts.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		id:        nextClientID.Add(1),
		opts:      defaultOptions(),
		telemetry: telemetry.NoopProvider(),
		metrics:   metrics.Disabled(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.opts.EndpointURL == "" {
		return nil, newErr(ErrOptionInvalid, "endpoint-url is mandatory", nil)
	}

	transport, err := c.buildTransport()
	if err != nil {
		return nil, newErr(ErrTransport, "building HTTP transport", err)
	}
	c.httpClient = &http.Client{
		Transport: transport,
		Timeout:   c.opts.EndpointTimeout,
	}
	return c, nil
}

// WithTelemetry installs a telemetry.Provider, opening pep.authorize and its
// child spans for every Authorize call.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(c *Client) error {
		if p != nil {
			c.telemetry = p
		}
		return nil
	}
}

// WithMetrics installs a metrics.Registry recording authorize-path counters
// and histograms.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Client) error {
		if r != nil {
			c.metrics = r
		}
		return nil
	}
}

// RegisterPreProcessor adds p to the end of the pre-processor chain and
// calls its Init.
func (c *Client) RegisterPreProcessor(p plugin.PreProcessor) error {
	if err := c.preChain.Register(p); err != nil {
		return newErr(ErrPreProcessorInit, fmt.Sprintf("initializing pre-processor %q", p.Name()), err)
	}
	return nil
}

// RegisterPostProcessor adds p to the end of the post-processor chain and
// calls its Init.
func (c *Client) RegisterPostProcessor(p plugin.PostProcessor) error {
	if err := c.postChain.Register(p); err != nil {
		return newErr(ErrPostProcessorInit, fmt.Sprintf("initializing post-processor %q", p.Name()), err)
	}
	return nil
}

// Destroy releases c's owned option strings (zeroing the key password),
// invokes every registered plug-in's Destroy, and shuts down telemetry.
// Any further use of c is undefined, matching spec.md §4.7.
func (c *Client) Destroy(ctx context.Context) error {
	if c.destroyed {
		return nil
	}
	c.destroyed = true

	var first error
	if err := c.preChain.Destroy(); err != nil && first == nil {
		first = newErr(ErrPreProcessorRun, "destroying pre-processor chain", err)
	}
	if err := c.postChain.Destroy(); err != nil && first == nil {
		first = newErr(ErrPostProcessorRun, "destroying post-processor chain", err)
	}
	c.opts.destroyOptions()
	if err := c.telemetry.Shutdown(ctx); err != nil && first == nil {
		first = newErr(ErrTransport, "shutting down telemetry", err)
	}
	return first
}

func (c *Client) buildTransport() (*http.Transport, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: !c.opts.EndpointSSLValidation,
		CipherSuites:       c.opts.EndpointSSLCipherList,
		MinVersion:         tls.VersionTLS12,
	}

	if c.opts.EndpointClientCert != "" && c.opts.EndpointClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.opts.EndpointClientCert, c.opts.EndpointClientKey)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate/key: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if c.opts.EndpointServerCert != "" {
		pool, err := loadCAFile(c.opts.EndpointServerCert)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	} else if c.opts.EndpointServerCAPath != "" {
		pool, err := loadCADir(c.opts.EndpointServerCAPath)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	return &http.Transport{
		TLSClientConfig: tlsConfig,
		// DisableKeepAlives left false; the one-shot-per-call model of
		// spec.md §5 still benefits from connection reuse across calls on
		// the same Client. Signal-driven cancellation is never installed
		// here since net/http never uses it, satisfying the "disable
		// signal-driven cancellation" requirement by construction.
	}, nil
}

func loadCAFile(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading server CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

func loadCADir(path string) (*x509.CertPool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading server CA directory: %w", err)
	}
	pool := x509.NewCertPool()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(path + string(os.PathSeparator) + e.Name())
		if err != nil {
			continue
		}
		pool.AppendCertsFromPEM(data)
	}
	return pool, nil
}

// Authorize runs the full spec.md §4.7 pipeline: pre-processors, marshal,
// base64-encode, HTTPS POST, base64-decode, unmarshal, the effective-request
// swap, and post-processors. On success it returns the (possibly replaced)
// request and the decoded Response.
func (c *Client) Authorize(ctx context.Context, req *xacml.Request) (*xacml.Request, *xacml.Response, error) {
	correlationID := uuid.NewString()
	start := time.Now()

	ctx, span := c.telemetry.StartAuthorize(ctx, c.id, correlationID, c.opts.EndpointURL)
	defer span.End()

	logging.L().Debug("pep: authorize starting", "client_id", c.id, "correlation_id", correlationID)

	effective, resp, httpStatus, err := c.authorize(ctx, req)

	decision := ""
	if resp != nil && len(resp.Results) > 0 {
		decision = resp.Results[0].Decision.String()
	}
	c.metrics.ObserveAuthorize(decision, metricsResultFor(err), time.Since(start).Seconds())
	c.telemetry.EndAuthorize(span, decision, httpStatus, err)
	if err != nil {
		return nil, nil, err
	}
	return effective, resp, nil
}

// metricsResultFor maps an authorize error (or nil) onto the
// pep_authorize_total "result" label.
func metricsResultFor(err error) metrics.Result {
	kind, ok := KindOf(err)
	if !ok {
		return metrics.ResultOK
	}
	switch kind {
	case ErrTransport, ErrTransportPerform:
		return metrics.ResultTransportError
	case ErrAuthzRequest:
		return metrics.ResultHTTPError
	case ErrMarshalEncoding, ErrMarshalIO:
		return metrics.ResultMarshalError
	case ErrUnmarshalEncoding, ErrUnmarshalIO:
		return metrics.ResultUnmarshalError
	case ErrPreProcessorInit, ErrPreProcessorRun:
		return metrics.ResultPreProcessorError
	case ErrPostProcessorInit, ErrPostProcessorRun:
		return metrics.ResultPostProcessorError
	default:
		return metrics.ResultTransportError
	}
}

func (c *Client) authorize(ctx context.Context, req *xacml.Request) (*xacml.Request, *xacml.Response, int, error) {
	if req == nil {
		return nil, nil, 0, newErr(ErrNullPointer, "request must not be nil", nil)
	}

	if c.opts.EnablePreProcessors {
		_, preSpan := c.telemetry.StartChild(ctx, "pep.preprocessors")
		err := c.preChain.Run(req)
		preSpan.End()
		if err != nil {
			return nil, nil, 0, newErr(ErrPreProcessorRun, "pre-processor chain", err)
		}
	}

	logging.L().Debug("pep: request attributes", "attributes", redactedAttributeSummary(req))

	_, marshalSpan := c.telemetry.StartChild(ctx, "pep.marshal")
	wireReq, err := xacml.MarshalRequest(req)
	marshalSpan.End()
	if err != nil {
		return nil, nil, 0, newErr(ErrMarshalEncoding, "marshaling request", err)
	}

	wireBuf := buffer.New(0)
	if err := hessian.Serialize(wireBuf, wireReq); err != nil {
		return nil, nil, 0, newErr(ErrMarshalEncoding, "serializing Hessian request", err)
	}

	encoded := buffer.New(0)
	if err := b64.Encode(encoded, wireBuf, b64.DefaultLineLength); err != nil {
		return nil, nil, 0, newErr(ErrMarshalEncoding, "base64-encoding request", err)
	}
	c.metrics.AddHessianBytes(metrics.DirectionSent, encoded.Len())

	postCtx, postSpan := c.telemetry.StartChild(ctx, "pep.transport.post")
	respBody, httpStatus, err := c.post(postCtx, encoded.Bytes())
	postSpan.End()
	if err != nil {
		return nil, nil, httpStatus, newErr(ErrTransportPerform, "performing HTTP POST", err)
	}
	if httpStatus != http.StatusOK {
		return nil, nil, httpStatus, newErr(ErrAuthzRequest, fmt.Sprintf("unexpected HTTP status %d", httpStatus), nil)
	}

	decodedBuf := buffer.New(0)
	b64.Decode(decodedBuf, buffer.NewFromBytes(respBody))
	c.metrics.AddHessianBytes(metrics.DirectionReceived, decodedBuf.Len())

	_, unmarshalSpan := c.telemetry.StartChild(ctx, "pep.unmarshal")
	wireResp, err := hessian.Deserialize(decodedBuf)
	if err != nil {
		unmarshalSpan.End()
		return nil, nil, httpStatus, newErr(ErrUnmarshalEncoding, "deserializing Hessian response", err)
	}
	resp, err := xacml.UnmarshalResponse(wireResp)
	unmarshalSpan.End()
	if err != nil {
		return nil, nil, httpStatus, newErr(ErrUnmarshalEncoding, "unmarshaling response", err)
	}

	effective := req
	if echoed := resp.TakeRequest(); echoed != nil {
		effective = echoed
	}

	if c.opts.EnablePostProcessors {
		_, postProcSpan := c.telemetry.StartChild(ctx, "pep.postprocessors")
		err := c.postChain.Run(effective, resp)
		postProcSpan.End()
		if err != nil {
			return nil, nil, httpStatus, newErr(ErrPostProcessorRun, "post-processor chain", err)
		}
	}

	return effective, resp, httpStatus, nil
}

// redactedAttributeSummary builds a compact, scrubbed id=value list across a
// request's subjects, resources, action, and environment for debug logging.
func redactedAttributeSummary(req *xacml.Request) []string {
	var out []string
	collect := func(attrs []*xacml.Attribute) {
		for _, a := range attrs {
			for _, v := range a.Values {
				out = append(out, a.ID+"="+debugRedactor.Redact(v))
			}
		}
	}
	for _, s := range req.Subjects {
		collect(s.Attributes)
	}
	for _, r := range req.Resources {
		collect(r.Attributes)
	}
	if req.Action != nil {
		collect(req.Action.Attributes)
	}
	if req.Environment != nil {
		collect(req.Environment.Attributes)
	}
	return out
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Expect", "")
	httpReq.Header.Set("User-Agent", UserAgent)
	httpReq.ContentLength = int64(len(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}
