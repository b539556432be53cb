// Package xacml implements the authorization policy object model — Request,
// Response, and their leaf entities — together with its bidirectional
// Hessian wire mapping (see mapping.go). The tree is strictly ownership
// shaped: each container's slice fields hold its exclusive children, and
// Go's garbage collector reclaims them once the container becomes
// unreachable, replacing the original C library's manual recursive free.
package xacml

import "fmt"

// Decision is the outcome of a policy evaluation, encoded on the wire as
// the integer in this exact order (spec §3).
type Decision int32

const (
	Deny Decision = iota
	Permit
	Indeterminate
	NotApplicable
)

func (d Decision) String() string {
	switch d {
	case Deny:
		return "Deny"
	case Permit:
		return "Permit"
	case Indeterminate:
		return "Indeterminate"
	case NotApplicable:
		return "NotApplicable"
	default:
		return fmt.Sprintf("Decision(%d)", int32(d))
	}
}

// Valid reports whether d is one of the four defined decision codes.
func (d Decision) Valid() bool {
	return d >= Deny && d <= NotApplicable
}

// FulfillOn is the condition under which an Obligation applies.
type FulfillOn int32

const (
	FulfillOnDeny FulfillOn = iota
	FulfillOnPermit
)

func (f FulfillOn) String() string {
	switch f {
	case FulfillOnDeny:
		return "Deny"
	case FulfillOnPermit:
		return "Permit"
	default:
		return fmt.Sprintf("FulfillOn(%d)", int32(f))
	}
}

// Valid reports whether f is one of the two defined fulfill-on codes.
func (f FulfillOn) Valid() bool {
	return f == FulfillOnDeny || f == FulfillOnPermit
}

// Attribute is a named, optionally typed, optionally issued, ordered list
// of string values. Duplicate values are permitted and order is
// significant (preserved exactly across marshal/unmarshal).
type Attribute struct {
	ID       string
	DataType string // "" means absent
	Issuer   string // "" means absent
	Values   []string
}

// NewAttribute creates an Attribute with the given mandatory id.
func NewAttribute(id string) *Attribute {
	return &Attribute{ID: id}
}

// AddValue appends v to the attribute's ordered value list.
func (a *Attribute) AddValue(v string) {
	a.Values = append(a.Values, v)
}

// Clone returns a full deep copy of a (id, datatype, issuer, all values).
func (a *Attribute) Clone() *Attribute {
	cp := &Attribute{ID: a.ID, DataType: a.DataType, Issuer: a.Issuer}
	cp.Values = append(cp.Values, a.Values...)
	return cp
}

// AttributeAssignment is a single attribute carried by an Obligation: an id,
// an optional datatype, and at most one value.
//
// A zero-value AttributeAssignment has no id (HasID is false); this is only
// valid as a transient, partially-constructed state used by the
// deserializer while it is still reading fields. Marshaling an assignment
// whose id was never set is a hard error (see design note in DESIGN.md
// resolving the original library's ambiguity here).
type AttributeAssignment struct {
	ID       string
	HasID    bool
	DataType string
	Value    *string
}

// NewAttributeAssignment creates an AttributeAssignment with no id set.
func NewAttributeAssignment() *AttributeAssignment {
	return &AttributeAssignment{}
}

// SetID sets the assignment's mandatory id; id must be non-empty.
func (a *AttributeAssignment) SetID(id string) error {
	if id == "" {
		return fmt.Errorf("xacml: attribute assignment id must not be empty")
	}
	a.ID = id
	a.HasID = true
	return nil
}

// SetValue sets the assignment's single optional value.
func (a *AttributeAssignment) SetValue(v string) {
	a.Value = &v
}

// Subject is a principal attempting the action, described by an optional
// XACML subject-category URI and an ordered list of Attributes.
type Subject struct {
	Category   string // "" means absent
	Attributes []*Attribute
}

func NewSubject() *Subject { return &Subject{} }

// Resource is the target of the action: optional free-form content and an
// ordered list of Attributes.
type Resource struct {
	Content    string // "" means absent
	Attributes []*Attribute
}

func NewResource() *Resource { return &Resource{} }

// Action is the operation being attempted, described entirely by its
// Attributes.
type Action struct {
	Attributes []*Attribute
}

func NewAction() *Action { return &Action{} }

// Environment is ambient context for the decision, described entirely by
// its Attributes.
type Environment struct {
	Attributes []*Attribute
}

func NewEnvironment() *Environment { return &Environment{} }

// Request is the top-level policy query: the subjects asking, the
// resources and action involved, and optional ambient environment.
type Request struct {
	Subjects    []*Subject
	Resources   []*Resource
	Action      *Action
	Environment *Environment
}

func NewRequest() *Request { return &Request{} }

// AddSubject appends s to the request's ordered subject list.
func (r *Request) AddSubject(s *Subject) { r.Subjects = append(r.Subjects, s) }

// AddResource appends res to the request's ordered resource list.
func (r *Request) AddResource(res *Resource) { r.Resources = append(r.Resources, res) }

// StatusCode is a URI status value, optionally chaining to a nested
// sub-code to form a finite linked list.
type StatusCode struct {
	Value string
	Sub   *StatusCode
}

func NewStatusCode(value string) *StatusCode { return &StatusCode{Value: value} }

// Status carries an optional human-readable message and an optional
// StatusCode.
type Status struct {
	Message string // "" means absent
	Code    *StatusCode
}

// Obligation is a directive the PEP must honor alongside a decision: a
// mandatory id, the decision it attaches to, and its ordered attribute
// assignments.
type Obligation struct {
	ID                   string
	FulfillOn            FulfillOn // default FulfillOnDeny
	AttributeAssignments []*AttributeAssignment
}

func NewObligation(id string) *Obligation {
	return &Obligation{ID: id, FulfillOn: FulfillOnDeny}
}

// Result is one decision outcome within a Response, with its optional
// resource correlation, status, and obligations.
type Result struct {
	Decision   Decision // default Deny
	ResourceID string   // "" means absent
	Status     *Status
	Obligations []*Obligation
}

func NewResult() *Result { return &Result{Decision: Deny} }

// Response is the PDP's reply: zero or more Results and, optionally, the
// effective Request the PDP actually evaluated.
type Response struct {
	Request *Request
	Results []*Result
}

func NewResponse() *Response { return &Response{} }

// TakeRequest relinquishes ownership of the echoed effective Request,
// nulling the field in place and returning the previous value — the
// garbage-collected substitute for the original library's ownership
// transfer operation.
func (r *Response) TakeRequest() *Request {
	req := r.Request
	r.Request = nil
	return req
}
