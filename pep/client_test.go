package pep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/argus-authz/pep-client-go/internal/b64"
	"github.com/argus-authz/pep-client-go/internal/buffer"
	"github.com/argus-authz/pep-client-go/internal/hessian"
	"github.com/argus-authz/pep-client-go/xacml"
)

func minimalRequest() *xacml.Request {
	req := xacml.NewRequest()
	s := xacml.NewSubject()
	a := xacml.NewAttribute("urn:oasis:names:tc:xacml:1.0:subject:subject-id")
	a.DataType = "urn:oasis:names:tc:xacml:1.0:data-type:x500Name"
	a.AddValue("CN=Alice")
	s.Attributes = append(s.Attributes, a)
	req.AddSubject(s)

	res := xacml.NewResource()
	ra := xacml.NewAttribute("urn:oasis:names:tc:xacml:1.0:resource:resource-id")
	ra.AddValue("svc1")
	res.Attributes = append(res.Attributes, ra)
	req.AddResource(res)

	act := xacml.NewAction()
	aa := xacml.NewAttribute("urn:oasis:names:tc:xacml:1.0:action:action-id")
	aa.AddValue("read")
	act.Attributes = append(act.Attributes, aa)
	req.Action = act
	return req
}

// encodeResponse builds the base64-wrapped Hessian wire body for resp, as
// the server side of the HTTP contract would send it.
func encodeResponse(t *testing.T, resp *xacml.Response) []byte {
	t.Helper()
	v, err := xacml.MarshalResponse(resp)
	if err != nil {
		t.Fatalf("MarshalResponse failed: %v", err)
	}
	wire := buffer.New(0)
	if err := hessian.Serialize(wire, v); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	encoded := buffer.New(0)
	if err := b64.Encode(encoded, wire, b64.DefaultLineLength); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return encoded.Bytes()
}

func TestAuthorizeMinimalPermit(t *testing.T) {
	resp := xacml.NewResponse()
	r := xacml.NewResult()
	r.Decision = xacml.Permit
	resp.Results = append(resp.Results, r)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", req.Method)
		}
		if req.Header.Get("User-Agent") != UserAgent {
			t.Errorf("expected User-Agent %q, got %q", UserAgent, req.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write(encodeResponse(t, resp))
	}))
	defer server.Close()

	client, err := NewClient(WithEndpointURL(server.URL), WithEndpointSSLValidation(false))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, got, err := client.Authorize(context.Background(), minimalRequest())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Decision != xacml.Permit {
		t.Fatalf("expected single Permit result, got %#v", got.Results)
	}
}

func TestAuthorizeHTTP401IsAuthzRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(WithEndpointURL(server.URL), WithEndpointSSLValidation(false))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, resp, err := client.Authorize(context.Background(), minimalRequest())
	if err == nil {
		t.Fatal("expected error for HTTP 401")
	}
	if resp != nil {
		t.Fatalf("expected nil response on error, got %#v", resp)
	}
	kind, ok := KindOf(err)
	if !ok || kind != ErrAuthzRequest {
		t.Fatalf("expected ErrAuthzRequest, got %#v", err)
	}
}

func TestAuthorizeEffectiveRequestSwap(t *testing.T) {
	echoedReq := xacml.NewRequest()
	echoedReq.AddSubject(xacml.NewSubject())

	resp := xacml.NewResponse()
	resp.Request = echoedReq
	r := xacml.NewResult()
	r.Decision = xacml.Deny
	resp.Results = append(resp.Results, r)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(encodeResponse(t, resp))
	}))
	defer server.Close()

	client, err := NewClient(WithEndpointURL(server.URL), WithEndpointSSLValidation(false))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	original := minimalRequest()
	effective, _, err := client.Authorize(context.Background(), original)
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if effective == original {
		t.Fatal("expected effective request to be the echoed object, not the caller's original")
	}
	if len(effective.Subjects) != 1 {
		t.Fatalf("expected echoed request's single empty subject, got %#v", effective.Subjects)
	}
}

func TestNewClientRequiresEndpointURL(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error constructing a Client with no endpoint-url")
	}
}

func TestAuthorizeNilRequestIsNullPointerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		t.Fatal("server should not be contacted for a nil request")
	}))
	defer server.Close()

	client, err := NewClient(WithEndpointURL(server.URL), WithEndpointSSLValidation(false))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, _, err = client.Authorize(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil request")
	}
	kind, ok := KindOf(err)
	if !ok || kind != ErrNullPointer {
		t.Fatalf("expected ErrNullPointer, got %#v", err)
	}
}
