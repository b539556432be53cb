package xacml

import (
	"testing"

	"github.com/argus-authz/pep-client-go/internal/buffer"
	"github.com/argus-authz/pep-client-go/internal/hessian"
)

func TestRequestRoundTrip(t *testing.T) {
	req := NewRequest()
	s := NewSubject()
	s.Category = "http://example.org/subject-category/access-subject"
	a := NewAttribute("urn:oasis:names:tc:xacml:1.0:subject:subject-id")
	a.DataType = "http://www.w3.org/2001/XMLSchema#string"
	a.AddValue("alice")
	s.Attributes = append(s.Attributes, a)
	req.AddSubject(s)

	res := NewResource()
	res.Content = "/data/file.txt"
	req.AddResource(res)

	v, err := MarshalRequest(req)
	if err != nil {
		t.Fatalf("MarshalRequest failed: %v", err)
	}

	buf := encode(t, v)
	got := decode(t, buf)

	back, err := UnmarshalRequest(got)
	if err != nil {
		t.Fatalf("UnmarshalRequest failed: %v", err)
	}
	if len(back.Subjects) != 1 || back.Subjects[0].Category != s.Category {
		t.Fatalf("subject mismatch: %#v", back.Subjects)
	}
	if len(back.Subjects[0].Attributes) != 1 || back.Subjects[0].Attributes[0].Values[0] != "alice" {
		t.Fatalf("attribute mismatch: %#v", back.Subjects[0].Attributes)
	}
	if back.Action != nil {
		t.Errorf("expected nil Action to round-trip as nil, got %#v", back.Action)
	}
	if back.Environment != nil {
		t.Errorf("expected nil Environment to round-trip as nil, got %#v", back.Environment)
	}
	if len(back.Resources) != 1 || back.Resources[0].Content != "/data/file.txt" {
		t.Fatalf("resource mismatch: %#v", back.Resources)
	}
}

func TestMarshalNilRequestIsError(t *testing.T) {
	if _, err := MarshalRequest(nil); err == nil {
		t.Fatal("expected error marshaling nil Request")
	}
}

func TestMarshalAttributeAssignmentWithoutIDIsError(t *testing.T) {
	a := NewAttributeAssignment()
	if _, err := marshalAttributeAssignment(a); err == nil {
		t.Fatal("expected error marshaling AttributeAssignment with no id")
	}
}

func TestLegacyAttributeAssignmentValues(t *testing.T) {
	m := hessian.NewMap(ClassAttributeAssignment)
	m.Set(keyAttributeID, hessian.String("posix-uid"))
	legacy := hessian.NewList("")
	legacy.Elements = []hessian.Value{hessian.String("first"), hessian.String("1000")}
	m.Set(keyValues, legacy)

	a, err := unmarshalAttributeAssignment(m)
	if err != nil {
		t.Fatalf("unmarshalAttributeAssignment failed: %v", err)
	}
	if !a.HasID || a.ID != "posix-uid" {
		t.Fatalf("expected id posix-uid, got %#v", a)
	}
	if a.Value == nil || *a.Value != "1000" {
		t.Fatalf("expected legacy value resolved to last element '1000', got %#v", a.Value)
	}
}

func TestResponseRoundTripWithEffectiveRequest(t *testing.T) {
	resp := NewResponse()
	resp.Request = NewRequest()
	resp.Request.AddSubject(NewSubject())

	r := NewResult()
	r.Decision = Permit
	r.ResourceID = "/data/file.txt"
	ob := NewObligation("urn:example:obligation:log")
	ob.FulfillOn = FulfillOnPermit
	aa := NewAttributeAssignment()
	if err := aa.SetID("urn:example:assignment:message"); err != nil {
		t.Fatalf("SetID failed: %v", err)
	}
	aa.SetValue("access granted")
	ob.AttributeAssignments = append(ob.AttributeAssignments, aa)
	r.Obligations = append(r.Obligations, ob)
	resp.Results = append(resp.Results, r)

	v, err := MarshalResponse(resp)
	if err != nil {
		t.Fatalf("MarshalResponse failed: %v", err)
	}
	buf := encode(t, v)
	got := decode(t, buf)

	back, err := UnmarshalResponse(got)
	if err != nil {
		t.Fatalf("UnmarshalResponse failed: %v", err)
	}
	if back.Request == nil || len(back.Request.Subjects) != 1 {
		t.Fatalf("expected effective request to round-trip, got %#v", back.Request)
	}
	taken := back.TakeRequest()
	if taken == nil || back.Request != nil {
		t.Fatalf("TakeRequest did not relinquish ownership correctly")
	}

	if len(back.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(back.Results))
	}
	gotResult := back.Results[0]
	if gotResult.Decision != Permit {
		t.Errorf("expected Permit, got %v", gotResult.Decision)
	}
	if len(gotResult.Obligations) != 1 || gotResult.Obligations[0].FulfillOn != FulfillOnPermit {
		t.Fatalf("obligation mismatch: %#v", gotResult.Obligations)
	}
	assignment := gotResult.Obligations[0].AttributeAssignments[0]
	if assignment.Value == nil || *assignment.Value != "access granted" {
		t.Errorf("expected assignment value preserved, got %#v", assignment.Value)
	}
}

func TestUnmarshalRequestWrongClassIsError(t *testing.T) {
	m := hessian.NewMap(ClassResource)
	if _, err := UnmarshalRequest(m); err == nil {
		t.Fatal("expected error unmarshaling wrong class name as Request")
	}
}

func TestUnmarshalDecisionOutOfRangeIsError(t *testing.T) {
	m := hessian.NewMap(ClassResult)
	m.Set(keyDecision, hessian.Int(99))
	if _, err := unmarshalResult(m); err == nil {
		t.Fatal("expected error for out-of-range decision code")
	}
}

func TestAttributeOrderPreserved(t *testing.T) {
	a := NewAttribute("multi")
	a.AddValue("one")
	a.AddValue("two")
	a.AddValue("three")
	v, err := marshalAttribute(a)
	if err != nil {
		t.Fatalf("marshalAttribute failed: %v", err)
	}
	buf := encode(t, v)
	got := decode(t, buf)
	back, err := unmarshalAttribute(got)
	if err != nil {
		t.Fatalf("unmarshalAttribute failed: %v", err)
	}
	want := []string{"one", "two", "three"}
	for i, w := range want {
		if back.Values[i] != w {
			t.Errorf("value order mismatch at %d: want %q, got %q", i, w, back.Values[i])
		}
	}
}

func encode(t *testing.T, v hessian.Value) *buffer.Buffer {
	t.Helper()
	b := buffer.New(0)
	if err := hessian.Serialize(b, v); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	return b
}

func decode(t *testing.T, b *buffer.Buffer) hessian.Value {
	t.Helper()
	b.Rewind()
	v, err := hessian.Deserialize(b)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	return v
}
