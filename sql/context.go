package sql

import (
	"context"

	"github.com/google/uuid"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
)

// Context carries the ambient state of one resolution: a standard context,
// a tracer, and a logger. It is not safe for concurrent use by more than
// one resolver instance.
type Context struct {
	context.Context
	id     uuid.UUID
	tracer opentracing.Tracer
	logger *logrus.Entry
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithTracer returns an option that sets the tracer used by Span.
func WithTracer(t opentracing.Tracer) ContextOption {
	return func(c *Context) {
		c.tracer = t
	}
}

// WithLogger returns an option that sets the base logger.
func WithLogger(l *logrus.Entry) ContextOption {
	return func(c *Context) {
		c.logger = l
	}
}

// NewContext builds a Context wrapping ctx with a noop tracer and the
// standard logger unless options override them.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		Context: ctx,
		id:      uuid.New(),
		tracer:  opentracing.NoopTracer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger().WithField("resolver_id", c.id.String())
	}
	return c
}

// NewEmptyContext is a shorthand for tests.
func NewEmptyContext() *Context { return NewContext(context.Background()) }

// Id returns the unique id of this context.
func (c *Context) Id() uuid.UUID { return c.id }

// Logger returns the context logger.
func (c *Context) Logger() *logrus.Entry { return c.logger }

// Span starts a tracing span as a child of the context's active span, if
// any, and returns a context carrying the new span.
func (c *Context) Span(opName string, opts ...opentracing.StartSpanOption) (opentracing.Span, *Context) {
	parent := opentracing.SpanFromContext(c.Context)
	if parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := c.tracer.StartSpan(opName, opts...)
	child := *c
	child.Context = opentracing.ContextWithSpan(c.Context, span)
	return span, &child
}
