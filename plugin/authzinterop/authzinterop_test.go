package authzinterop

import (
	"testing"

	"github.com/argus-authz/pep-client-go/xacml"
)

func TestProcessClonesSubjectIDAndSetsProfileVersion(t *testing.T) {
	req := xacml.NewRequest()
	s := xacml.NewSubject()
	subjectID := xacml.NewAttribute(xacmlSubjectIDAttr)
	subjectID.AddValue("CN=Alice")
	s.Attributes = append(s.Attributes, subjectID)
	req.AddSubject(s)

	if err := New().Process(req); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(req.Subjects[0].Attributes) != 2 {
		t.Fatalf("expected original attribute plus clone, got %d", len(req.Subjects[0].Attributes))
	}
	clone := req.Subjects[0].Attributes[1]
	if clone.ID != interopSubjectIDAttr || clone.Values[0] != "CN=Alice" {
		t.Fatalf("unexpected clone: %#v", clone)
	}

	if req.Environment == nil {
		t.Fatal("expected Environment to be created")
	}
	found := false
	for _, a := range req.Environment.Attributes {
		if a.ID == profileIDEnvAttr && len(a.Values) == 1 && a.Values[0] == profileVersion {
			found = true
		}
	}
	if !found {
		t.Fatal("expected profile-version environment attribute to be set")
	}
}

func TestProcessLeavesExistingProfileVersionAlone(t *testing.T) {
	req := xacml.NewRequest()
	req.Environment = xacml.NewEnvironment()
	existing := xacml.NewAttribute(profileIDEnvAttr)
	existing.AddValue("http://authz-interop.org/profiles/grid_wn/custom")
	req.Environment.Attributes = append(req.Environment.Attributes, existing)

	if err := New().Process(req); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(req.Environment.Attributes) != 1 {
		t.Fatalf("expected no additional profile-version attribute, got %d", len(req.Environment.Attributes))
	}
	if req.Environment.Attributes[0].Values[0] != "http://authz-interop.org/profiles/grid_wn/custom" {
		t.Fatal("expected pre-existing profile version to be preserved")
	}
}

func TestProcessIgnoresUnrelatedAttributes(t *testing.T) {
	req := xacml.NewRequest()
	s := xacml.NewSubject()
	other := xacml.NewAttribute("urn:example:subject:role")
	other.AddValue("admin")
	s.Attributes = append(s.Attributes, other)
	req.AddSubject(s)

	if err := New().Process(req); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(req.Subjects[0].Attributes) != 1 {
		t.Fatalf("expected no clone for unrelated attribute, got %d", len(req.Subjects[0].Attributes))
	}
}
