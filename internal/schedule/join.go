package schedule

import (
	"context"
	"errors"
	"fmt"

	"camp-export/internal/camp"
	"camp-export/internal/docstore"

	"go.uber.org/zap"
)

// Joined returns the specific meals of the camp with their meal template
// fields and fully resolved recipe copies attached.
func (b *Builder) Joined(ctx context.Context) ([]camp.SpecificMeal, error) {
	err := b.run(ctx, stageJoin, func(ctx context.Context) error {
		specific, err := b.SpecificMeals(ctx)
		if err != nil {
			return err
		}
		meals, err := b.Meals(ctx)
		if err != nil {
			return err
		}
		enrichMeals(specific, meals)

		recipes, err := b.Recipes(ctx)
		if err != nil {
			return err
		}
		attached := attachRecipes(specific, recipes)

		if err := b.resolveOverrides(ctx, specific); err != nil {
			return err
		}
		defaultFreshFlags(specific)

		b.joined = specific
		b.logger.Debug("meals joined",
			zap.Int("specific_meals", len(specific)),
			zap.Int("attached_recipes", attached))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cloneMeals(b.joined), nil
}

// enrichMeals copies name and description of each meal template onto the
// specific meals that reference it.
func enrichMeals(specific []camp.SpecificMeal, meals []camp.Meal) {
	byID := make(map[string]camp.Meal, len(meals))
	for _, m := range meals {
		byID[m.DocID] = m
	}
	for i := range specific {
		m, ok := byID[specific[i].MealID]
		if !ok {
			continue
		}
		specific[i].MealName = m.MealName
		specific[i].MealDescription = m.MealDescription
	}
}

// attachRecipes appends a private copy of every recipe to each specific meal
// whose template the recipe is used in. It returns the number of copies made.
func attachRecipes(specific []camp.SpecificMeal, recipes []camp.Recipe) int {
	n := 0
	for _, r := range recipes {
		for i := range specific {
			if !r.UsedIn(specific[i].MealID) {
				continue
			}
			specific[i].Recipes = append(specific[i].Recipes, r.Clone())
			n++
		}
	}
	return n
}

func (b *Builder) resolveOverrides(ctx context.Context, specific []camp.SpecificMeal) error {
	for i := range specific {
		meal := &specific[i]
		for j := range meal.Recipes {
			recipe := &meal.Recipes[j]

			override, err := b.override(ctx, recipe.DocID, meal.DocID)
			if err != nil {
				return err
			}
			recipe.Apply(override)
			recipe.UniqueID = camp.UniqueRecipeID(meal.DocID, recipe.DocID)
		}
	}
	return nil
}

// override loads the camp specific settings of a recipe. A missing document
// yields the defaults.
func (b *Builder) override(ctx context.Context, recipeID, specificMealID string) (camp.RecipeOverride, error) {
	doc, err := b.store.Get(ctx, camp.OverridePath(recipeID, specificMealID))
	if errors.Is(err, docstore.ErrNotFound) {
		return camp.DefaultOverride(), nil
	}
	if err != nil {
		return camp.RecipeOverride{}, fmt.Errorf("failed to fetch override of recipe %s for meal %s: %w", recipeID, specificMealID, err)
	}
	return camp.Decode[camp.RecipeOverride](doc)
}

func defaultFreshFlags(specific []camp.SpecificMeal) {
	for i := range specific {
		for j := range specific[i].Recipes {
			ingredients := specific[i].Recipes[j].Ingredients
			for k := range ingredients {
				if ingredients[k].Fresh == nil {
					ingredients[k].Fresh = new(bool)
				}
			}
		}
	}
}
