// Package update builds partial update requests for the task table.
//
// A request is rendered as a DynamoDB style update expression: reserved
// attribute names are referenced through "#name" aliases and every value
// through a ":name" placeholder, so no caller supplied text is ever spliced
// into the expression itself.
package update

import (
	"regexp"
	"sort"
	"strings"

	"karya/internal/domain"
)

const op = "build update"

// DefaultReserved is the reserved word subset of the DynamoDB grammar that
// task attributes can plausibly collide with.
var DefaultReserved = []string{
	"STATUS", "NAME", "DATE", "TIME", "TIMESTAMP", "TTL", "DATA", "TYPE",
	"USER", "COMMENT", "SIZE", "VALUE", "KEY", "YEAR", "MONTH", "DAY",
	"OWNER", "STATE", "ORDER", "GROUP", "LEVEL", "URL", "PATH", "FILE",
}

var identityFields = map[string]bool{
	domain.AttrOwnerID: true,
	domain.AttrTaskID:  true,
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Request is a rendered partial update.
type Request struct {
	// Clause is the comma separated assignment list, e.g. "#status = :status".
	Clause string
	// Values maps value placeholders to values.
	Values map[string]any
	// Names maps aliases of reserved attribute names to the real names. Nil
	// when nothing is aliased.
	Names map[string]string

	fields  map[string]any
	builder *Builder
}

// Expression returns the full update expression.
func (r *Request) Expression() string {
	return "SET " + r.Clause
}

// Fields returns a copy of the attribute to value map behind the request.
func (r *Request) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// With adds a derived attribute to the request and re-renders it. Identity
// fields stay forbidden.
func (r *Request) With(name string, value any) (*Request, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	fields := r.Fields()
	fields[name] = value
	return r.builder.render(fields), nil
}

// Builder renders update requests against a reserved word set.
type Builder struct {
	reserved map[string]struct{}
}

// NewBuilder returns a Builder for the given reserved words (case-insensitive).
// With no words it uses DefaultReserved.
func NewBuilder(reserved ...string) *Builder {
	if len(reserved) == 0 {
		reserved = DefaultReserved
	}
	b := &Builder{reserved: make(map[string]struct{}, len(reserved))}
	for _, w := range reserved {
		b.reserved[strings.ToUpper(w)] = struct{}{}
	}
	return b
}

var defaultBuilder = NewBuilder()

// Build renders fields with the default reserved set.
func Build(fields map[string]any) (*Request, error) {
	return defaultBuilder.Build(fields)
}

// IsReserved reports whether name collides with a reserved word.
func (b *Builder) IsReserved(name string) bool {
	_, ok := b.reserved[strings.ToUpper(name)]
	return ok
}

// Build validates fields and renders the update request. An empty map, an
// identity field or a name that is not a plain identifier is rejected with an
// invalid argument error.
func (b *Builder) Build(fields map[string]any) (*Request, error) {
	if len(fields) == 0 {
		return nil, domain.InvalidArgument(op, "no fields to update")
	}
	for name := range fields {
		if err := checkName(name); err != nil {
			return nil, err
		}
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return b.render(copied), nil
}

func checkName(name string) error {
	if identityFields[name] {
		return domain.InvalidArgument(op, "field %q cannot be updated", name)
	}
	if !namePattern.MatchString(name) {
		return domain.InvalidArgument(op, "invalid field name %q", name)
	}
	return nil
}

func (b *Builder) render(fields map[string]any) *Request {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	req := &Request{
		Values:  make(map[string]any, len(fields)),
		fields:  fields,
		builder: b,
	}

	clauses := make([]string, 0, len(names))
	for _, name := range names {
		ref := name
		if b.IsReserved(name) {
			ref = "#" + name
			if req.Names == nil {
				req.Names = make(map[string]string)
			}
			req.Names[ref] = name
		}
		placeholder := ":" + name
		req.Values[placeholder] = fields[name]
		clauses = append(clauses, ref+" = "+placeholder)
	}
	req.Clause = strings.Join(clauses, ", ")
	return req
}
