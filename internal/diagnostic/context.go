package diagnostic

import (
	"strings"
)

// Location is a snapshot of where the compiler was when something went wrong.
type Location struct {
	Resource string
	Activity string
	Object   string
}

// IsZero reports whether no location information was recorded.
func (l Location) IsZero() bool {
	return l.Resource == "" && l.Activity == "" && l.Object == ""
}

// String renders the location as a single line, outermost detail first.
func (l Location) String() string {
	var parts []string
	if l.Resource != "" {
		parts = append(parts, "in "+l.Resource)
	}

	if l.Activity != "" {
		parts = append(parts, "while "+l.Activity)
	}

	if l.Object != "" {
		parts = append(parts, "involving "+l.Object)
	}

	return strings.Join(parts, ", ")
}

// Context accumulates the current parsing location of one build call.
//
// Frames are pushed with Store when the compiler descends into a nested
// document (a mapper loaded from the configuration) and popped with Recall.
// Reset clears everything and must run after every build attempt.
type Context struct {
	BuildID     string
	Diagnostics Diagnostics

	current Location
	stored  []Location
}

// NewContext returns an empty context for the given build.
func NewContext(buildID string) *Context {
	return &Context{BuildID: buildID}
}

// Resource records the document currently being read.
func (c *Context) Resource(resource string) *Context {
	c.current.Resource = resource
	return c
}

// Activity records what the compiler is doing.
func (c *Context) Activity(activity string) *Context {
	c.current.Activity = activity
	return c
}

// Object records the element or id being processed.
func (c *Context) Object(object string) *Context {
	c.current.Object = object
	return c
}

// Current returns the innermost location.
func (c *Context) Current() Location {
	return c.current
}

// Store pushes the current location and starts a fresh frame.
func (c *Context) Store() *Context {
	c.stored = append(c.stored, c.current)
	c.current = Location{}

	return c
}

// Recall pops the frame saved by the matching Store.
func (c *Context) Recall() *Context {
	if n := len(c.stored); n > 0 {
		c.current = c.stored[n-1]
		c.stored = c.stored[:n-1]
	}

	return c
}

// Trail returns every non-empty frame, outermost first.
func (c *Context) Trail() []string {
	trail := make([]string, 0, len(c.stored)+1)
	for _, loc := range c.stored {
		if !loc.IsZero() {
			trail = append(trail, loc.String())
		}
	}

	if !c.current.IsZero() {
		trail = append(trail, c.current.String())
	}

	return trail
}

// IsEmpty reports whether the context holds no location and no diagnostics.
func (c *Context) IsEmpty() bool {
	return c.current.IsZero() && len(c.stored) == 0 && c.Diagnostics.IsEmpty()
}

// Reset clears every frame and every diagnostic.
func (c *Context) Reset() {
	c.current = Location{}
	c.stored = nil
	c.Diagnostics.Reset()
}
