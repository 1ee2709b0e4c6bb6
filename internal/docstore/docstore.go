package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxContainsAny is the largest value list the backing store accepts for an
// array-contains-any filter.
const MaxContainsAny = 10

var (
	// ErrNotFound is returned by Get when no document exists at the path.
	ErrNotFound = errors.New("document not found")
	// ErrMalformedQuery is returned for queries the store refuses to run.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrUnavailable wraps connectivity and server-side failures of the store.
	ErrUnavailable = errors.New("document store unavailable")
)

// Op is a filter operator.
type Op string

const (
	OpEqual            Op = "=="
	OpArrayContains    Op = "array-contains"
	OpArrayContainsAny Op = "array-contains-any"
)

// Filter restricts a query to documents whose Field satisfies Op against Value.
// For OpArrayContainsAny, Value must be a []string or []any.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents from a collection. With AllDescendants set, every
// collection named Collection anywhere in the database is searched
// (a collection group query).
type Query struct {
	Collection     string
	AllDescendants bool
	Filter         Filter
}

// Document is a schema-less record.
type Document struct {
	// ID is the last segment of Path.
	ID string
	// Path is relative to the database root, e.g. "recipes/abc".
	Path   string
	Fields map[string]any

	decode func(any) error
}

// DataTo decodes the document fields into the struct pointed to by v, using
// its firestore field tags.
func (d Document) DataTo(v any) error {
	if d.decode != nil {
		return d.decode(v)
	}
	return decodeFields(d.Fields, v)
}

// Client is the read-only capability set the export pipeline needs from a
// document database.
type Client interface {
	// Get returns the document at path or ErrNotFound.
	Get(ctx context.Context, path string) (Document, error)
	// Query runs q and returns every matching document.
	Query(ctx context.Context, q Query) ([]Document, error)
}

// Validate reports whether the store would accept q.
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: no collection", ErrMalformedQuery)
	}
	if strings.Contains(q.Collection, "/") {
		return fmt.Errorf("%w: collection %q is a path", ErrMalformedQuery, q.Collection)
	}
	if q.Filter.Field == "" {
		return fmt.Errorf("%w: no filter field", ErrMalformedQuery)
	}
	switch q.Filter.Op {
	case OpEqual, OpArrayContains:
	case OpArrayContainsAny:
		values, ok := listValues(q.Filter.Value)
		if !ok {
			return fmt.Errorf("%w: %s needs a list value", ErrMalformedQuery, q.Filter.Op)
		}
		if len(values) == 0 || len(values) > MaxContainsAny {
			return fmt.Errorf("%w: %s takes 1 to %d values, got %d", ErrMalformedQuery, q.Filter.Op, MaxContainsAny, len(values))
		}
	default:
		return fmt.Errorf("%w: unsupported operator %q", ErrMalformedQuery, q.Filter.Op)
	}
	return nil
}

// DocumentID returns the last segment of a document path.
func DocumentID(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// parentCollection returns the id of the collection directly containing the
// document at path.
func parentCollection(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2]
}

func listValues(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
