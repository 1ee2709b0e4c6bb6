package schedule

import (
	"cmp"
	"context"
	"slices"
	"time"

	"camp-export/internal/camp"
	"camp-export/internal/textsafe"

	"go.uber.org/zap"
)

// Schedule is the assembled view handed to the renderer.
type Schedule struct {
	User        camp.User           `json:"user"`
	Camp        camp.CampMeta       `json:"camp"`
	Meals       []camp.SpecificMeal `json:"meals"`
	Landscape   bool                `json:"landscape"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// RecipeCount returns the number of recipes attached over all meals.
func (s *Schedule) RecipeCount() int {
	n := 0
	for _, m := range s.Meals {
		n += len(m.Recipes)
	}
	return n
}

// Build runs every outstanding stage and returns the schedule. The result is
// computed once per Builder; callers must not modify it.
func (b *Builder) Build(ctx context.Context) (*Schedule, error) {
	err := b.run(ctx, stageNormalize, func(ctx context.Context) error {
		user, err := b.User(ctx)
		if err != nil {
			return err
		}
		meta, err := b.CampMeta(ctx)
		if err != nil {
			return err
		}
		meals, err := b.Joined(ctx)
		if err != nil {
			return err
		}

		sanitize(meals, b.opts.Escaper)
		if err := sortMeals(meals, b.rank); err != nil {
			return err
		}

		b.schedule = &Schedule{
			User:        user,
			Camp:        meta,
			Meals:       meals,
			Landscape:   b.opts.Landscape,
			GeneratedAt: b.opts.Now().UTC(),
		}
		b.logger.Debug("schedule built", zap.Int("meals", len(meals)), zap.Int("days", len(meta.Days)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.schedule, nil
}

// sanitize escapes the text that is typeset verbatim and drops ingredients
// left without a name.
func sanitize(meals []camp.SpecificMeal, escaper textsafe.Sanitizer) {
	for i := range meals {
		meals[i].MealWeekviewName = escaper.Sanitize(meals[i].MealWeekviewName)
		for j := range meals[i].Recipes {
			recipe := &meals[i].Recipes[j]
			for k := range recipe.Ingredients {
				recipe.Ingredients[k].Food = escaper.Sanitize(recipe.Ingredients[k].Food)
			}
			recipe.Ingredients = slices.DeleteFunc(recipe.Ingredients, func(ing camp.Ingredient) bool {
				return ing.Food == ""
			})
		}
	}
}

// sortMeals orders meals by category rank and then, stably, by date. The date
// pass runs last, so the date is the primary key and the category rank only
// breaks ties between meals of the same instant.
func sortMeals(meals []camp.SpecificMeal, rank map[string]int) error {
	for _, m := range meals {
		if _, ok := rank[categoryKey(m.MealUsedAs)]; !ok {
			return &UnknownCategoryError{Category: m.MealUsedAs, SpecificMealID: m.DocID}
		}
	}

	slices.SortStableFunc(meals, func(a, b camp.SpecificMeal) int {
		return cmp.Compare(rank[categoryKey(a.MealUsedAs)], rank[categoryKey(b.MealUsedAs)])
	})
	slices.SortStableFunc(meals, func(a, b camp.SpecificMeal) int {
		return a.MealDate.Compare(b.MealDate)
	})
	return nil
}
