// Package preprocess applies stylesheet transformations to source content
// before conversion. The transformation itself is an external collaborator;
// this package resolves stylesheet references and turns empty output into
// explicit failures, the one error class conversion callers must handle.
package preprocess

import (
	"context"
	"fmt"
	"strings"

	"github.com/heritage-libraries/mapflow/mapping"
)

// Transformer is the external transformation collaborator, typically an
// XSLT processor. It is treated as potentially slow, hence the context.
type Transformer interface {
	Transform(ctx context.Context, content, stylesheet string, params map[string]string) (string, error)
}

// TransformError identifies the stylesheet reference that could not
// produce output.
type TransformError struct {
	Ref   string
	Cause error
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transforming with stylesheet %q: %v", e.Ref, e.Cause)
	}
	return fmt.Sprintf("transforming with stylesheet %q produced no output", e.Ref)
}

func (e *TransformError) Unwrap() error {
	return e.Cause
}

// Preprocessor resolves stylesheet references through the mapping resolver
// and runs them in order, each stage feeding the next.
type Preprocessor struct {
	transformer Transformer
	resolver    *mapping.Resolver
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithResolver sets the stylesheet reference resolver.
func WithResolver(r *mapping.Resolver) Option {
	return func(p *Preprocessor) { p.resolver = r }
}

// New creates a preprocessor over a transformation collaborator.
func New(t Transformer, opts ...Option) *Preprocessor {
	p := &Preprocessor{
		transformer: t,
		resolver:    mapping.NewResolver(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run applies each stylesheet in order. A reference starting with "<" is
// inline stylesheet content; anything else resolves like a mapping
// reference. Unlike conversion misses, a failed or empty transformation is
// a hard failure: the caller gets a TransformError naming the stylesheet.
func (p *Preprocessor) Run(ctx context.Context, content string, stylesheets []string, params map[string]string) (string, error) {
	for _, ref := range stylesheets {
		stylesheet, err := p.stylesheet(ref)
		if err != nil {
			return "", &TransformError{Ref: ref, Cause: err}
		}
		out, err := p.transformer.Transform(ctx, content, stylesheet, params)
		if err != nil {
			return "", &TransformError{Ref: ref, Cause: err}
		}
		if strings.TrimSpace(out) == "" {
			return "", &TransformError{Ref: ref}
		}
		content = out
	}
	return content, nil
}

func (p *Preprocessor) stylesheet(ref string) (string, error) {
	if strings.HasPrefix(strings.TrimSpace(ref), "<") {
		return ref, nil
	}
	return p.resolver.Resolve(ref, "")
}
