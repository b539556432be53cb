package xacml

import (
	"fmt"

	"github.com/argus-authz/pep-client-go/internal/hessian"
	"github.com/argus-authz/pep-client-go/internal/logging"
)

// MarshalRequest converts r into its Hessian wire representation. A nil
// Request is a hard error; a nil Action or Environment inside a non-nil
// Request is emitted as an explicit Hessian Null at the corresponding
// field, matching the original wire behavior exactly.
func MarshalRequest(r *Request) (hessian.Value, error) {
	if r == nil {
		return nil, fmt.Errorf("xacml: cannot marshal a nil Request")
	}
	m := hessian.NewMap(ClassRequest)

	subjects := hessian.NewList("")
	for _, s := range r.Subjects {
		v, err := marshalSubject(s)
		if err != nil {
			return nil, err
		}
		subjects.Elements = append(subjects.Elements, v)
	}
	m.Set(keySubjects, subjects)

	resources := hessian.NewList("")
	for _, res := range r.Resources {
		v, err := marshalResource(res)
		if err != nil {
			return nil, err
		}
		resources.Elements = append(resources.Elements, v)
	}
	m.Set(keyResources, resources)

	if r.Action == nil {
		m.Set(keyAction, hessian.Null{})
	} else {
		v, err := marshalAction(r.Action)
		if err != nil {
			return nil, err
		}
		m.Set(keyAction, v)
	}

	if r.Environment == nil {
		m.Set(keyEnvironment, hessian.Null{})
	} else {
		v, err := marshalEnvironment(r.Environment)
		if err != nil {
			return nil, err
		}
		m.Set(keyEnvironment, v)
	}

	return m, nil
}

func marshalAttribute(a *Attribute) (hessian.Value, error) {
	if a == nil {
		return nil, fmt.Errorf("xacml: cannot marshal a nil Attribute")
	}
	m := hessian.NewMap(ClassAttribute)
	m.Set(keyID, hessian.String(a.ID))
	if a.DataType != "" {
		m.Set(keyDataType, hessian.String(a.DataType))
	}
	if a.Issuer != "" {
		m.Set(keyIssuer, hessian.String(a.Issuer))
	}
	values := hessian.NewList("")
	for _, v := range a.Values {
		values.Elements = append(values.Elements, hessian.String(v))
	}
	m.Set(keyValues, values)
	return m, nil
}

func marshalAttributeList(attrs []*Attribute) (*hessian.List, error) {
	l := hessian.NewList("")
	for _, a := range attrs {
		v, err := marshalAttribute(a)
		if err != nil {
			return nil, err
		}
		l.Elements = append(l.Elements, v)
	}
	return l, nil
}

func marshalSubject(s *Subject) (hessian.Value, error) {
	m := hessian.NewMap(ClassSubject)
	if s.Category != "" {
		m.Set(keyCategory, hessian.String(s.Category))
	}
	attrs, err := marshalAttributeList(s.Attributes)
	if err != nil {
		return nil, err
	}
	m.Set(keyAttributes, attrs)
	return m, nil
}

func marshalResource(r *Resource) (hessian.Value, error) {
	m := hessian.NewMap(ClassResource)
	if r.Content != "" {
		m.Set(keyResourceContent, hessian.String(r.Content))
	}
	attrs, err := marshalAttributeList(r.Attributes)
	if err != nil {
		return nil, err
	}
	m.Set(keyAttributes, attrs)
	return m, nil
}

func marshalAction(a *Action) (hessian.Value, error) {
	m := hessian.NewMap(ClassAction)
	attrs, err := marshalAttributeList(a.Attributes)
	if err != nil {
		return nil, err
	}
	m.Set(keyAttributes, attrs)
	return m, nil
}

func marshalEnvironment(e *Environment) (hessian.Value, error) {
	m := hessian.NewMap(ClassEnvironment)
	attrs, err := marshalAttributeList(e.Attributes)
	if err != nil {
		return nil, err
	}
	m.Set(keyAttributes, attrs)
	return m, nil
}

func marshalStatusCode(c *StatusCode) hessian.Value {
	if c == nil {
		return hessian.Null{}
	}
	m := hessian.NewMap(ClassStatusCode)
	m.Set(keyCode, hessian.String(c.Value))
	m.Set(keySubCode, marshalStatusCode(c.Sub))
	return m
}

func marshalStatus(s *Status) hessian.Value {
	if s == nil {
		return hessian.Null{}
	}
	m := hessian.NewMap(ClassStatus)
	if s.Message != "" {
		m.Set(keyMessage, hessian.String(s.Message))
	}
	if s.Code != nil {
		m.Set(keyStatusCode, marshalStatusCode(s.Code))
	}
	return m
}

func marshalAttributeAssignment(a *AttributeAssignment) (hessian.Value, error) {
	if !a.HasID {
		return nil, fmt.Errorf("xacml: cannot marshal an AttributeAssignment whose id was never set")
	}
	m := hessian.NewMap(ClassAttributeAssignment)
	m.Set(keyAttributeID, hessian.String(a.ID))
	if a.DataType != "" {
		m.Set(keyDataType, hessian.String(a.DataType))
	}
	if a.Value != nil {
		m.Set(keyValue, hessian.String(*a.Value))
	}
	return m, nil
}

func marshalObligation(o *Obligation) (hessian.Value, error) {
	m := hessian.NewMap(ClassObligation)
	m.Set(keyID, hessian.String(o.ID))
	m.Set(keyFulfillOn, hessian.Int(o.FulfillOn))
	assignments := hessian.NewList("")
	for _, a := range o.AttributeAssignments {
		v, err := marshalAttributeAssignment(a)
		if err != nil {
			return nil, err
		}
		assignments.Elements = append(assignments.Elements, v)
	}
	m.Set(keyAttributeAssignments, assignments)
	return m, nil
}

func marshalResult(r *Result) (hessian.Value, error) {
	m := hessian.NewMap(ClassResult)
	m.Set(keyDecision, hessian.Int(r.Decision))
	if r.ResourceID != "" {
		m.Set(keyResourceID, hessian.String(r.ResourceID))
	}
	if r.Status != nil {
		m.Set(keyStatus, marshalStatus(r.Status))
	}
	obligations := hessian.NewList("")
	for _, o := range r.Obligations {
		v, err := marshalObligation(o)
		if err != nil {
			return nil, err
		}
		obligations.Elements = append(obligations.Elements, v)
	}
	m.Set(keyObligations, obligations)
	return m, nil
}

// MarshalResponse converts resp into its Hessian wire representation.
func MarshalResponse(resp *Response) (hessian.Value, error) {
	if resp == nil {
		return nil, fmt.Errorf("xacml: cannot marshal a nil Response")
	}
	m := hessian.NewMap(ClassResponse)
	if resp.Request == nil {
		m.Set(keyRequest, hessian.Null{})
	} else {
		v, err := MarshalRequest(resp.Request)
		if err != nil {
			return nil, err
		}
		m.Set(keyRequest, v)
	}
	results := hessian.NewList("")
	for _, r := range resp.Results {
		v, err := marshalResult(r)
		if err != nil {
			return nil, err
		}
		results.Elements = append(results.Elements, v)
	}
	m.Set(keyResults, results)
	return m, nil
}

// --- Unmarshal ---

func expectMap(v hessian.Value, class string) (*hessian.Map, error) {
	m, err := hessian.AsMap(v)
	if err != nil {
		return nil, fmt.Errorf("xacml: expected %s: %w", class, err)
	}
	if m.Type != class {
		return nil, fmt.Errorf("xacml: expected map type %q, got %q", class, m.Type)
	}
	return m, nil
}

func warnUnknownKeys(class string, m *hessian.Map, known map[string]bool) {
	for _, p := range m.Entries {
		key, err := hessian.AsString(p.Key)
		if err != nil {
			continue
		}
		if !known[key] {
			logging.L().Warn("xacml: skipping unknown field", "class", class, "field", key)
		}
	}
}

func getString(m *hessian.Map, key string) (string, error) {
	v, ok := m.Get(key)
	if !ok || hessian.IsNull(v) {
		return "", nil
	}
	return hessian.AsString(v)
}

func getList(m *hessian.Map, key string) (*hessian.List, error) {
	v, ok := m.Get(key)
	if !ok || hessian.IsNull(v) {
		return hessian.NewList(""), nil
	}
	return hessian.AsList(v)
}

// UnmarshalRequest converts a Hessian Request Map back into a *Request.
func UnmarshalRequest(v hessian.Value) (*Request, error) {
	m, err := expectMap(v, ClassRequest)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassRequest, m, map[string]bool{
		keySubjects: true, keyResources: true, keyAction: true, keyEnvironment: true,
	})

	r := NewRequest()

	subjects, err := getList(m, keySubjects)
	if err != nil {
		return nil, err
	}
	for _, sv := range subjects.Elements {
		s, err := unmarshalSubject(sv)
		if err != nil {
			return nil, err
		}
		r.AddSubject(s)
	}

	resources, err := getList(m, keyResources)
	if err != nil {
		return nil, err
	}
	for _, rv := range resources.Elements {
		res, err := unmarshalResource(rv)
		if err != nil {
			return nil, err
		}
		r.AddResource(res)
	}

	if av, ok := m.Get(keyAction); ok && !hessian.IsNull(av) {
		a, err := unmarshalAction(av)
		if err != nil {
			return nil, err
		}
		r.Action = a
	}

	if ev, ok := m.Get(keyEnvironment); ok && !hessian.IsNull(ev) {
		e, err := unmarshalEnvironment(ev)
		if err != nil {
			return nil, err
		}
		r.Environment = e
	}

	return r, nil
}

func unmarshalAttribute(v hessian.Value) (*Attribute, error) {
	m, err := expectMap(v, ClassAttribute)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassAttribute, m, map[string]bool{
		keyID: true, keyDataType: true, keyIssuer: true, keyValues: true,
	})
	id, err := getString(m, keyID)
	if err != nil {
		return nil, err
	}
	a := NewAttribute(id)
	a.DataType, err = getString(m, keyDataType)
	if err != nil {
		return nil, err
	}
	a.Issuer, err = getString(m, keyIssuer)
	if err != nil {
		return nil, err
	}
	values, err := getList(m, keyValues)
	if err != nil {
		return nil, err
	}
	for _, vv := range values.Elements {
		s, err := hessian.AsString(vv)
		if err != nil {
			return nil, fmt.Errorf("xacml: Attribute.values must be strings: %w", err)
		}
		a.AddValue(s)
	}
	return a, nil
}

func unmarshalAttributeList(l *hessian.List) ([]*Attribute, error) {
	var out []*Attribute
	for _, v := range l.Elements {
		a, err := unmarshalAttribute(v)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func unmarshalSubject(v hessian.Value) (*Subject, error) {
	m, err := expectMap(v, ClassSubject)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassSubject, m, map[string]bool{keyCategory: true, keyAttributes: true})
	s := NewSubject()
	s.Category, err = getString(m, keyCategory)
	if err != nil {
		return nil, err
	}
	attrs, err := getList(m, keyAttributes)
	if err != nil {
		return nil, err
	}
	s.Attributes, err = unmarshalAttributeList(attrs)
	return s, err
}

func unmarshalResource(v hessian.Value) (*Resource, error) {
	m, err := expectMap(v, ClassResource)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassResource, m, map[string]bool{keyResourceContent: true, keyAttributes: true})
	r := NewResource()
	r.Content, err = getString(m, keyResourceContent)
	if err != nil {
		return nil, err
	}
	attrs, err := getList(m, keyAttributes)
	if err != nil {
		return nil, err
	}
	r.Attributes, err = unmarshalAttributeList(attrs)
	return r, err
}

func unmarshalAction(v hessian.Value) (*Action, error) {
	m, err := expectMap(v, ClassAction)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassAction, m, map[string]bool{keyAttributes: true})
	a := NewAction()
	attrs, err := getList(m, keyAttributes)
	if err != nil {
		return nil, err
	}
	a.Attributes, err = unmarshalAttributeList(attrs)
	return a, err
}

func unmarshalEnvironment(v hessian.Value) (*Environment, error) {
	m, err := expectMap(v, ClassEnvironment)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassEnvironment, m, map[string]bool{keyAttributes: true})
	e := NewEnvironment()
	attrs, err := getList(m, keyAttributes)
	if err != nil {
		return nil, err
	}
	e.Attributes, err = unmarshalAttributeList(attrs)
	return e, err
}

func unmarshalStatusCode(v hessian.Value) (*StatusCode, error) {
	if hessian.IsNull(v) {
		return nil, nil
	}
	m, err := expectMap(v, ClassStatusCode)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassStatusCode, m, map[string]bool{keyCode: true, keySubCode: true})
	value, err := getString(m, keyCode)
	if err != nil {
		return nil, err
	}
	sc := NewStatusCode(value)
	if subV, ok := m.Get(keySubCode); ok {
		sc.Sub, err = unmarshalStatusCode(subV)
		if err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func unmarshalStatus(v hessian.Value) (*Status, error) {
	if hessian.IsNull(v) {
		return nil, nil
	}
	m, err := expectMap(v, ClassStatus)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassStatus, m, map[string]bool{keyMessage: true, keyStatusCode: true})
	s := &Status{}
	s.Message, err = getString(m, keyMessage)
	if err != nil {
		return nil, err
	}
	if cv, ok := m.Get(keyStatusCode); ok {
		s.Code, err = unmarshalStatusCode(cv)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// unmarshalAttributeAssignment implements the legacy-key backward
// compatibility rule: a deprecated `values` List of strings is accepted in
// place of the modern single `value` field, with its last element becoming
// the assignment's value and a warning emitted.
func unmarshalAttributeAssignment(v hessian.Value) (*AttributeAssignment, error) {
	m, err := expectMap(v, ClassAttributeAssignment)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassAttributeAssignment, m, map[string]bool{
		keyAttributeID: true, keyDataType: true, keyValue: true, keyValues: true,
	})
	a := NewAttributeAssignment()
	id, err := getString(m, keyAttributeID)
	if err != nil {
		return nil, err
	}
	if id != "" {
		if err := a.SetID(id); err != nil {
			return nil, err
		}
	}
	a.DataType, err = getString(m, keyDataType)
	if err != nil {
		return nil, err
	}

	if vv, ok := m.Get(keyValue); ok && !hessian.IsNull(vv) {
		s, err := hessian.AsString(vv)
		if err != nil {
			return nil, err
		}
		a.SetValue(s)
	} else if legacy, ok := m.Get(keyValues); ok && !hessian.IsNull(legacy) {
		l, err := hessian.AsList(legacy)
		if err != nil {
			return nil, fmt.Errorf("xacml: legacy AttributeAssignment.values must be a List: %w", err)
		}
		logging.L().Warn("xacml: AttributeAssignment using deprecated legacy 'values' key", "id", id)
		if len(l.Elements) > 0 {
			s, err := hessian.AsString(l.Elements[len(l.Elements)-1])
			if err != nil {
				return nil, fmt.Errorf("xacml: legacy AttributeAssignment.values elements must be strings: %w", err)
			}
			a.SetValue(s)
		}
	}
	return a, nil
}

func unmarshalObligation(v hessian.Value) (*Obligation, error) {
	m, err := expectMap(v, ClassObligation)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassObligation, m, map[string]bool{
		keyID: true, keyFulfillOn: true, keyAttributeAssignments: true,
	})
	id, err := getString(m, keyID)
	if err != nil {
		return nil, err
	}
	o := NewObligation(id)

	if fv, ok := m.Get(keyFulfillOn); ok && !hessian.IsNull(fv) {
		code, err := hessian.AsInt(fv)
		if err != nil {
			return nil, err
		}
		fo := FulfillOn(code)
		if !fo.Valid() {
			return nil, fmt.Errorf("xacml: fulfillOn code %d out of range", code)
		}
		o.FulfillOn = fo
	}

	assignments, err := getList(m, keyAttributeAssignments)
	if err != nil {
		return nil, err
	}
	for _, av := range assignments.Elements {
		a, err := unmarshalAttributeAssignment(av)
		if err != nil {
			return nil, err
		}
		o.AttributeAssignments = append(o.AttributeAssignments, a)
	}
	return o, nil
}

func unmarshalResult(v hessian.Value) (*Result, error) {
	m, err := expectMap(v, ClassResult)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassResult, m, map[string]bool{
		keyDecision: true, keyResourceID: true, keyStatus: true, keyObligations: true,
	})
	r := NewResult()

	if dv, ok := m.Get(keyDecision); ok && !hessian.IsNull(dv) {
		code, err := hessian.AsInt(dv)
		if err != nil {
			return nil, err
		}
		d := Decision(code)
		if !d.Valid() {
			return nil, fmt.Errorf("xacml: decision code %d out of range", code)
		}
		r.Decision = d
	}

	r.ResourceID, err = getString(m, keyResourceID)
	if err != nil {
		return nil, err
	}

	if sv, ok := m.Get(keyStatus); ok {
		r.Status, err = unmarshalStatus(sv)
		if err != nil {
			return nil, err
		}
	}

	obligations, err := getList(m, keyObligations)
	if err != nil {
		return nil, err
	}
	for _, ov := range obligations.Elements {
		o, err := unmarshalObligation(ov)
		if err != nil {
			return nil, err
		}
		r.Obligations = append(r.Obligations, o)
	}
	return r, nil
}

// UnmarshalResponse converts a Hessian Response Map back into a *Response.
func UnmarshalResponse(v hessian.Value) (*Response, error) {
	m, err := expectMap(v, ClassResponse)
	if err != nil {
		return nil, err
	}
	warnUnknownKeys(ClassResponse, m, map[string]bool{keyRequest: true, keyResults: true})

	resp := NewResponse()
	if rv, ok := m.Get(keyRequest); ok && !hessian.IsNull(rv) {
		req, err := UnmarshalRequest(rv)
		if err != nil {
			return nil, err
		}
		resp.Request = req
	}

	results, err := getList(m, keyResults)
	if err != nil {
		return nil, err
	}
	for _, rv := range results.Elements {
		r, err := unmarshalResult(rv)
		if err != nil {
			return nil, err
		}
		resp.Results = append(resp.Results, r)
	}
	return resp, nil
}
