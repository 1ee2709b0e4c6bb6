package schedule

import (
	"context"
	"slices"
	"sync"
	"time"

	"camp-export/internal/docstore"
)

var testMealTypes = []string{"Zmorgen", "Znüni", "Zmittag", "Zvieri", "Znacht", "Dessert", "Leitersnack", "Vorbereiten"}

func day(d int) time.Time {
	return time.Date(2021, 7, d, 0, 0, 0, 0, time.UTC)
}

// recordingStore counts round trips and remembers the value list of every
// recipe query. It can fail selected calls.
type recordingStore struct {
	next docstore.Client

	mu          sync.Mutex
	gets        int
	queries     int
	recipeIDs   [][]string
	failQuery   map[string]error
	failGet     map[string]error
}

func newRecordingStore(next docstore.Client) *recordingStore {
	return &recordingStore{next: next, failQuery: map[string]error{}, failGet: map[string]error{}}
}

func (s *recordingStore) Get(ctx context.Context, path string) (docstore.Document, error) {
	s.mu.Lock()
	s.gets++
	err, fail := s.failGet[path]
	if fail {
		delete(s.failGet, path)
	}
	s.mu.Unlock()

	if fail {
		return docstore.Document{}, err
	}
	return s.next.Get(ctx, path)
}

func (s *recordingStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	s.mu.Lock()
	s.queries++
	if q.Collection == collectionRecipes {
		if ids, ok := q.Filter.Value.([]string); ok {
			s.recipeIDs = append(s.recipeIDs, slices.Clone(ids))
		}
	}
	err, fail := s.failQuery[q.Collection]
	if fail {
		delete(s.failQuery, q.Collection)
	}
	s.mu.Unlock()

	if fail {
		return nil, err
	}
	return s.next.Query(ctx, q)
}

func (s *recordingStore) counts() (gets, queries int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.queries
}

func (s *recordingStore) sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.recipeIDs))
	for i, ids := range s.recipeIDs {
		out[i] = len(ids)
	}
	return out
}

// chunks returns the recipe query value lists ordered by their first id, as
// the queries themselves run concurrently.
func (s *recordingStore) chunks() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.recipeIDs)
	slices.SortFunc(out, func(a, b []string) int {
		return slices.Compare(a, b)
	})
	return out
}

// newCampStore returns a small camp: three specific meals over two meal
// templates, two recipes and one override.
func newCampStore() *docstore.Memory {
	m := docstore.NewMemory()
	m.Put("users/u1", map[string]any{"displayName": "Hüpf", "email": "huepf@example.ch"})
	m.Put("camps/c1", map[string]any{
		"camp_name": "Sommerlager",
		"days": []any{
			map[string]any{"day_date": day(6), "day_description": "Abreise"},
			map[string]any{"day_date": day(4), "day_description": "Anreise"},
			map[string]any{"day_date": day(5), "day_description": "Wanderung"},
		},
	})
	m.Put("meals/m1", map[string]any{
		"meal_name":        "Hörnli & Ghackets",
		"meal_description": "Klassiker",
		"used_in_camps":    []any{"c1", "c9"},
	})
	m.Put("meals/m2", map[string]any{
		"meal_name":     "Birchermüesli",
		"used_in_camps": []any{"c1"},
	})
	m.Put("meals/m3", map[string]any{
		"meal_name":     "Fondue",
		"used_in_camps": []any{"c9"},
	})
	m.Put("meals/m1/specificMeals/s1", map[string]any{
		"meal_id": "m1", "used_in_camp": "c1", "meal_used_as": "Zmittag",
		"meal_date": day(5), "meal_weekview_name": "Hörnli & Ghackets",
	})
	m.Put("meals/m2/specificMeals/s2", map[string]any{
		"meal_id": "m2", "used_in_camp": "c1", "meal_used_as": "Zmorgen",
		"meal_date": day(5), "meal_weekview_name": "Zmorge",
	})
	m.Put("meals/m1/specificMeals/s3", map[string]any{
		"meal_id": "m1", "used_in_camp": "c1", "meal_used_as": "Znacht",
		"meal_date": day(4), "meal_weekview_name": "Resten",
	})
	m.Put("meals/m3/specificMeals/s9", map[string]any{
		"meal_id": "m3", "used_in_camp": "c9", "meal_used_as": "Znacht",
		"meal_date": day(4), "meal_weekview_name": "Fondue",
	})
	m.Put("recipes/r1", map[string]any{
		"recipe_name": "Hörnli",
		"ingredients": []any{
			map[string]any{"food": "Hörnli", "measure": 120, "unit": "g"},
			map[string]any{"food": "Salz & Pfeffer", "fresh": true},
			map[string]any{"food": ""},
		},
		"used_in_meals": []any{"m1"},
	})
	m.Put("recipes/r2", map[string]any{
		"recipe_name":   "Müesli",
		"ingredients":   []any{map[string]any{"food": "Haferflocken", "measure": 80, "unit": "g"}},
		"used_in_meals": []any{"m2", "m7"},
	})
	m.Put("recipes/r1/specificRecipes/s1", map[string]any{
		"recipe_used_for":              "vegetarians",
		"recipe_participants":          12,
		"recipe_override_participants": true,
	})
	return m
}

func newTestBuilder(store docstore.Client) (*Builder, error) {
	return New(store, Options{
		CampID:    "c1",
		UserID:    "u1",
		MealTypes: testMealTypes,
		Now:       func() time.Time { return time.Date(2021, 6, 30, 12, 0, 0, 0, time.UTC) },
	})
}
