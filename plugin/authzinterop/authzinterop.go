// Package authzinterop is a built-in pre-processor adapter that rewrites a
// Request for sites still expecting the AuthZ Interop profile's subject-id
// attribute identifier, styled on the teacher's ordered pattern-table
// transform (internal/redaction): a fixed, ordered list of named rules
// applied to a mutable value.
package authzinterop

import (
	"github.com/argus-authz/pep-client-go/internal/logging"
	"github.com/argus-authz/pep-client-go/xacml"
)

const (
	name = "authzinterop"

	// xacmlSubjectIDAttr is the XACML 1.0 subject-id attribute identifier.
	xacmlSubjectIDAttr = "urn:oasis:names:tc:xacml:1.0:subject:subject-id"
	// interopSubjectIDAttr is the equivalent AuthZ Interop profile identifier.
	interopSubjectIDAttr = "http://authz-interop.org/xacml-attr/subject-issuer"
	// profileIDEnvAttr carries the interop profile version marker.
	profileIDEnvAttr = "http://authz-interop.org/xacml-attr/profile-id"
	// profileVersion is the marker value this adapter asserts.
	profileVersion = "http://authz-interop.org/profiles/grid_wn/1.0"
)

// rule renames or clones one attribute identifier under a new URI.
type rule struct {
	name   string
	from   string
	rename func(a *xacml.Attribute) *xacml.Attribute
}

var rules = []rule{
	{
		name: "clone-subject-id",
		from: xacmlSubjectIDAttr,
		rename: func(a *xacml.Attribute) *xacml.Attribute {
			clone := a.Clone()
			clone.ID = interopSubjectIDAttr
			return clone
		},
	},
}

// Adapter implements plugin.PreProcessor.
type Adapter struct{}

// New creates the AuthZ Interop attribute-rename adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return name }

func (a *Adapter) Init() error { return nil }

func (a *Adapter) Destroy() error { return nil }

// Process clones any matching Subject attributes under the interop
// identifier and, creating the Environment if necessary, sets the profile
// version marker environment attribute if it is not already present.
func (a *Adapter) Process(req *xacml.Request) error {
	for _, s := range req.Subjects {
		var cloned []*xacml.Attribute
		for _, attr := range s.Attributes {
			for _, r := range rules {
				if attr.ID == r.from {
					cloned = append(cloned, r.rename(attr))
					logging.L().Debug("authzinterop: cloned attribute", "rule", r.name, "subject-attr", attr.ID)
				}
			}
		}
		s.Attributes = append(s.Attributes, cloned...)
	}

	if req.Environment == nil {
		req.Environment = xacml.NewEnvironment()
	}
	for _, attr := range req.Environment.Attributes {
		if attr.ID == profileIDEnvAttr {
			return nil
		}
	}
	profileAttr := xacml.NewAttribute(profileIDEnvAttr)
	profileAttr.AddValue(profileVersion)
	req.Environment.Attributes = append(req.Environment.Attributes, profileAttr)
	return nil
}
