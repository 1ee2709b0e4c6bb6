package docstore

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-memory Client. It applies the same filter rules as the
// hosted store, including the array-contains-any size limit.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]any)}
}

// Put stores fields at path, replacing any previous document.
func (m *Memory) Put(path string, fields map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[strings.Trim(path, "/")] = copyFields(fields)
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Get implements Client.
func (m *Memory) Get(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	path = strings.Trim(path, "/")

	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.docs[path]
	if !ok {
		return Document{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return Document{ID: DocumentID(path), Path: path, Fields: copyFields(fields)}, nil
}

// Query implements Client. Results are ordered by document path.
func (m *Memory) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := slices.Sorted(maps.Keys(m.docs))
	var out []Document
	for _, path := range paths {
		if !inCollection(path, q) {
			continue
		}
		fields := m.docs[path]
		if !matches(fields[q.Filter.Field], q.Filter) {
			continue
		}
		out = append(out, Document{ID: DocumentID(path), Path: path, Fields: copyFields(fields)})
	}
	return out, nil
}

func inCollection(path string, q Query) bool {
	if q.AllDescendants {
		return parentCollection(path) == q.Collection
	}
	return path == q.Collection+"/"+DocumentID(path)
}

func matches(field any, f Filter) bool {
	switch f.Op {
	case OpEqual:
		return equalValues(field, f.Value)
	case OpArrayContains:
		list, ok := listValues(field)
		return ok && slices.ContainsFunc(list, func(v any) bool { return equalValues(v, f.Value) })
	case OpArrayContainsAny:
		list, ok := listValues(field)
		if !ok {
			return false
		}
		wanted, _ := listValues(f.Value)
		for _, w := range wanted {
			if slices.ContainsFunc(list, func(v any) bool { return equalValues(v, w) }) {
				return true
			}
		}
	}
	return false
}

func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func copyFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}
