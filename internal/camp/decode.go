package camp

import (
	"fmt"

	"camp-export/internal/docstore"
)

// record is a pointer to an entity that can be decoded from a document.
type record[T any] interface {
	*T
	setDocID(id string)
}

func (u *User) setDocID(id string)           { u.DocID = id }
func (c *CampMeta) setDocID(id string)       { c.DocID = id }
func (m *Meal) setDocID(id string)           { m.DocID = id }
func (s *SpecificMeal) setDocID(id string)   { s.DocID = id }
func (r *Recipe) setDocID(id string)         { r.DocID = id }
func (o *RecipeOverride) setDocID(id string) { o.DocID = id }

// Decode converts a document into T and records the document id on it.
func Decode[T any, P record[T]](doc docstore.Document) (T, error) {
	var out T
	if err := doc.DataTo(&out); err != nil {
		return out, fmt.Errorf("failed to decode document %s: %w", doc.Path, err)
	}
	P(&out).setDocID(doc.ID)
	return out, nil
}

// DecodeAll decodes every document, failing on the first bad one.
func DecodeAll[T any, P record[T]](docs []docstore.Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := Decode[T, P](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
