package xacml

import "testing"

func TestDecisionValid(t *testing.T) {
	for d := Deny; d <= NotApplicable; d++ {
		if !d.Valid() {
			t.Errorf("expected %v to be valid", d)
		}
	}
	if Decision(99).Valid() {
		t.Errorf("expected out-of-range decision to be invalid")
	}
}

func TestFulfillOnValid(t *testing.T) {
	if !FulfillOnDeny.Valid() || !FulfillOnPermit.Valid() {
		t.Fatal("expected both defined fulfillOn codes to be valid")
	}
	if FulfillOn(2).Valid() {
		t.Error("expected out-of-range fulfillOn to be invalid")
	}
}

func TestAttributeAssignmentRequiresID(t *testing.T) {
	a := NewAttributeAssignment()
	if a.HasID {
		t.Fatal("expected fresh AttributeAssignment to have no id")
	}
	if err := a.SetID(""); err == nil {
		t.Fatal("expected error setting empty id")
	}
	if err := a.SetID("urn:example:x"); err != nil {
		t.Fatalf("SetID failed: %v", err)
	}
	if !a.HasID || a.ID != "urn:example:x" {
		t.Fatalf("expected id set, got %#v", a)
	}
}

func TestAttributeClone(t *testing.T) {
	a := NewAttribute("id")
	a.DataType = "string"
	a.Issuer = "issuer"
	a.AddValue("v1")
	a.AddValue("v2")

	cp := a.Clone()
	cp.Values[0] = "changed"
	if a.Values[0] != "v1" {
		t.Fatalf("expected Clone to be independent, original mutated: %#v", a.Values)
	}
	if cp.ID != a.ID || cp.DataType != a.DataType || cp.Issuer != a.Issuer {
		t.Fatalf("expected clone to preserve scalar fields: %#v", cp)
	}
}

func TestResponseTakeRequestRelinquishesOwnership(t *testing.T) {
	resp := NewResponse()
	resp.Request = NewRequest()

	taken := resp.TakeRequest()
	if taken == nil {
		t.Fatal("expected non-nil taken request")
	}
	if resp.Request != nil {
		t.Fatal("expected Response.Request to be nulled after TakeRequest")
	}
	if resp.TakeRequest() != nil {
		t.Fatal("expected second TakeRequest call to return nil")
	}
}
