package docstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"camp-export/internal/docstore"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFirestoreEmulatorIntegration runs the client against a local emulator,
// started e.g. with `gcloud emulators firestore start --host-port=localhost:8080`.
func TestFirestoreEmulatorIntegration(t *testing.T) {
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping integration test")
	}
	ctx := context.Background()
	const project = "camp-export-test"

	seed, err := firestore.NewClient(ctx, project)
	require.NoError(t, err)
	defer seed.Close()

	date := time.Date(2021, 7, 5, 10, 0, 0, 0, time.UTC)
	writes := map[string]map[string]any{
		"meals/m1":                         {"meal_name": "Risotto", "used_in_camps": []string{"c1"}},
		"meals/m1/specificMeals/s1":        {"used_in_camp": "c1", "meal_date": date},
		"recipes/r1":                       {"recipe_name": "Reis", "used_in_meals": []string{"m1", "m2"}},
		"recipes/r2":                       {"recipe_name": "Salat", "used_in_meals": []string{"m3"}},
		"recipes/r1/specificRecipes/s1":    {"recipe_used_for": "leaders", "recipe_participants": 4},
		"recipes/r2/specificRecipes/other": {"recipe_used_for": "all"},
	}
	for path, fields := range writes {
		_, err := seed.Doc(path).Set(ctx, fields)
		require.NoError(t, err)
	}

	fs, err := docstore.NewFirestore(ctx, docstore.FirestoreConfig{ProjectID: project, EmulatorHost: host})
	require.NoError(t, err)
	defer fs.Close()

	t.Run("Get", func(t *testing.T) {
		doc, err := fs.Get(ctx, "recipes/r1/specificRecipes/s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", doc.ID)
		assert.Equal(t, "recipes/r1/specificRecipes/s1", doc.Path)

		var override struct {
			UsedFor      string `firestore:"recipe_used_for"`
			Participants int    `firestore:"recipe_participants"`
		}
		require.NoError(t, doc.DataTo(&override))
		assert.Equal(t, "leaders", override.UsedFor)
		assert.Equal(t, 4, override.Participants)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := fs.Get(ctx, "recipes/r1/specificRecipes/missing")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("CollectionGroup", func(t *testing.T) {
		docs, err := fs.Query(ctx, docstore.Query{
			Collection:     "specificMeals",
			AllDescendants: true,
			Filter:         docstore.Filter{Field: "used_in_camp", Op: docstore.OpEqual, Value: "c1"},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)

		var meal struct {
			MealDate time.Time `firestore:"meal_date"`
		}
		require.NoError(t, docs[0].DataTo(&meal))
		assert.True(t, meal.MealDate.Equal(date))
	})

	t.Run("ArrayContainsAny", func(t *testing.T) {
		docs, err := fs.Query(ctx, docstore.Query{
			Collection: "recipes",
			Filter:     docstore.Filter{Field: "used_in_meals", Op: docstore.OpArrayContainsAny, Value: []string{"m2", "m9"}},
		})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "r1", docs[0].ID)
	})
}
