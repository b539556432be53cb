// Package plugin defines the pre-processor and post-processor capability
// sets (spec.md §4.8) and an ordered registry that runs them in
// registration order, short-circuiting on the first non-zero return — the
// generalization of the teacher's single SessionEndCallback hook into an
// ordered chain of named, replaceable capabilities.
package plugin

import "github.com/argus-authz/pep-client-go/xacml"

// PreProcessor runs before a Request is marshaled and transported. Each
// carries a stable Name used only in logs.
type PreProcessor interface {
	Name() string
	Init() error
	Process(req *xacml.Request) error
	Destroy() error
}

// PostProcessor runs after a Response has been received and unmarshaled,
// and after the effective-request swap has taken place.
type PostProcessor interface {
	Name() string
	Init() error
	Process(req *xacml.Request, resp *xacml.Response) error
	Destroy() error
}

// PreProcessorChain runs an ordered, registration-order list of
// PreProcessors.
type PreProcessorChain struct {
	chain []PreProcessor
}

// Register appends p to the chain and calls its Init.
func (c *PreProcessorChain) Register(p PreProcessor) error {
	if err := p.Init(); err != nil {
		return err
	}
	c.chain = append(c.chain, p)
	return nil
}

// Run invokes Process on each registered pre-processor in order, returning
// immediately on the first error.
func (c *PreProcessorChain) Run(req *xacml.Request) error {
	for _, p := range c.chain {
		if err := p.Process(req); err != nil {
			return err
		}
	}
	return nil
}

// Destroy calls Destroy on every registered pre-processor, collecting the
// first error but always visiting every entry.
func (c *PreProcessorChain) Destroy() error {
	var first error
	for _, p := range c.chain {
		if err := p.Destroy(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// PostProcessorChain runs an ordered, registration-order list of
// PostProcessors.
type PostProcessorChain struct {
	chain []PostProcessor
}

// Register appends p to the chain and calls its Init.
func (c *PostProcessorChain) Register(p PostProcessor) error {
	if err := p.Init(); err != nil {
		return err
	}
	c.chain = append(c.chain, p)
	return nil
}

// Run invokes Process on each registered post-processor in order, returning
// immediately on the first error.
func (c *PostProcessorChain) Run(req *xacml.Request, resp *xacml.Response) error {
	for _, p := range c.chain {
		if err := p.Process(req, resp); err != nil {
			return err
		}
	}
	return nil
}

// Destroy calls Destroy on every registered post-processor, collecting the
// first error but always visiting every entry.
func (c *PostProcessorChain) Destroy() error {
	var first error
	for _, p := range c.chain {
		if err := p.Destroy(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
