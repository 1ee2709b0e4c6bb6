package shopping

import (
	"testing"
	"time"

	"camp-export/internal/camp"
	"camp-export/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingredient(food string, measure float64, unit string, fresh bool) camp.Ingredient {
	return camp.Ingredient{Food: food, Measure: measure, Unit: unit, Fresh: &fresh}
}

func testSchedule() *schedule.Schedule {
	day1 := time.Date(2021, 7, 5, 11, 0, 0, 0, time.UTC)
	day2 := time.Date(2021, 7, 6, 7, 0, 0, 0, time.UTC)
	generated := time.Date(2021, 6, 30, 12, 0, 0, 0, time.UTC)

	return &schedule.Schedule{
		Camp: camp.CampMeta{DocID: "sola21", CampParticipants: 20, CampVegetarians: 4, CampLeaders: 5},
		Meals: []camp.SpecificMeal{
			{
				DocID:    "s1",
				MealDate: day1,
				Recipes: []camp.Recipe{
					{
						RecipeUsedFor: camp.UsedForNonVegetarians,
						Ingredients: []camp.Ingredient{
							ingredient("Hörnli", 0.1, "kg", false),
							ingredient("Hackfleisch", 0.125, "kg", true),
						},
					},
					{
						RecipeUsedFor: camp.UsedForVegetarians,
						Ingredients: []camp.Ingredient{
							ingredient("Hörnli", 0.1, "kg", false),
							ingredient("Zucchetti", 0.2, "kg", true),
						},
					},
				},
			},
			{
				DocID:                    "s2",
				MealDate:                 day2,
				MealParticipants:         10,
				MealOverrideParticipants: true,
				Recipes: []camp.Recipe{
					{
						RecipeUsedFor: camp.UsedForAll,
						Ingredients: []camp.Ingredient{
							ingredient("Äpfel", 1, "Stk", true),
							ingredient("Haferflocken", 0.08, "kg", false),
							ingredient("Milch", 0.2, "l", false),
						},
					},
					{
						RecipeUsedFor:              camp.UsedForLeaders,
						RecipeParticipants:         2,
						RecipeOverrideParticipants: true,
						Ingredients: []camp.Ingredient{
							ingredient("Kaffee", 0.02, "kg", false),
							ingredient("Milch", 100, "ml", false),
						},
					},
				},
			},
		},
		GeneratedAt: generated,
	}
}

func TestBuild(t *testing.T) {
	list := Build(testSchedule(), time.UTC)

	t.Run("Header", func(t *testing.T) {
		assert.Equal(t, "sola21", list.CampID)
		assert.Equal(t, time.Date(2021, 6, 30, 12, 0, 0, 0, time.UTC), list.CreatedAt)
		assert.Equal(t, 8, list.Len())
	})

	t.Run("StaplesSummedAndScaled", func(t *testing.T) {
		assert.Equal(t, []Item{
			{Food: "Haferflocken", Unit: "kg", Measure: 0.8},
			{Food: "Hörnli", Unit: "kg", Measure: 2},
			{Food: "Kaffee", Unit: "kg", Measure: 0.04},
			{Food: "Milch", Unit: "l", Measure: 2},
			{Food: "Milch", Unit: "ml", Measure: 200},
		}, list.Items)
	})

	t.Run("FreshPerDay", func(t *testing.T) {
		require.Len(t, list.Fresh, 2)
		assert.Equal(t, time.Date(2021, 7, 5, 0, 0, 0, 0, time.UTC), list.Fresh[0].Date)
		assert.Equal(t, []Item{
			{Food: "Hackfleisch", Unit: "kg", Measure: 2},
			{Food: "Zucchetti", Unit: "kg", Measure: 0.8},
		}, list.Fresh[0].Items)
		assert.Equal(t, []Item{{Food: "Äpfel", Unit: "Stk", Measure: 10}}, list.Fresh[1].Items)
	})
}

func TestBuildDayBoundary(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Skip("time zone database not available")
	}

	s := &schedule.Schedule{
		Camp: camp.CampMeta{CampParticipants: 1},
		Meals: []camp.SpecificMeal{{
			MealDate: time.Date(2021, 7, 5, 22, 30, 0, 0, time.UTC),
			Recipes:  []camp.Recipe{{Ingredients: []camp.Ingredient{ingredient("Brot", 1, "Stk", true)}}},
		}},
	}

	list := Build(s, zurich)
	require.Len(t, list.Fresh, 1)
	assert.Equal(t, 6, list.Fresh[0].Date.Day())
	assert.Empty(t, list.Items)
}

func TestBuildEmpty(t *testing.T) {
	list := Build(&schedule.Schedule{}, nil)
	assert.Empty(t, list.Items)
	assert.Empty(t, list.Fresh)
	assert.Zero(t, list.Len())
}
