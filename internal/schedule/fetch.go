package schedule

import (
	"context"
	"fmt"
	"slices"

	"camp-export/internal/camp"
	"camp-export/internal/docstore"
	"camp-export/internal/textsafe"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	collectionUsers         = "users"
	collectionCamps         = "camps"
	collectionMeals         = "meals"
	collectionSpecificMeals = "specificMeals"
	collectionRecipes       = "recipes"
)

// User returns the profile of the configured user.
func (b *Builder) User(ctx context.Context) (camp.User, error) {
	err := b.run(ctx, stageUser, func(ctx context.Context) error {
		if b.opts.UserID == "" {
			return fmt.Errorf("no user id configured")
		}
		doc, err := b.store.Get(ctx, collectionUsers+"/"+b.opts.UserID)
		if err != nil {
			return fmt.Errorf("failed to fetch user %s: %w", b.opts.UserID, err)
		}
		user, err := camp.Decode[camp.User](doc)
		if err != nil {
			return err
		}
		b.user = user
		return nil
	})
	if err != nil {
		return camp.User{}, err
	}
	return b.user, nil
}

// CampMeta returns the camp document. The days are sorted by date on every
// call, whether or not the document was already loaded.
func (b *Builder) CampMeta(ctx context.Context) (camp.CampMeta, error) {
	err := b.run(ctx, stageCampMeta, func(ctx context.Context) error {
		doc, err := b.store.Get(ctx, collectionCamps+"/"+b.opts.CampID)
		if err != nil {
			return fmt.Errorf("failed to fetch camp %s: %w", b.opts.CampID, err)
		}
		if doc.Fields["days"] == nil {
			return fmt.Errorf("camp %s: %w", b.opts.CampID, ErrMissingDays)
		}
		meta, err := camp.Decode[camp.CampMeta](doc)
		if err != nil {
			return err
		}
		b.campMeta = meta
		return nil
	})
	if err != nil {
		return camp.CampMeta{}, err
	}

	b.campMeta.SortDays()
	return b.campMeta.Clone(), nil
}

// SpecificMeals returns every specific meal of the camp, as stored.
func (b *Builder) SpecificMeals(ctx context.Context) ([]camp.SpecificMeal, error) {
	err := b.run(ctx, stageSpecificMeals, func(ctx context.Context) error {
		docs, err := b.store.Query(ctx, docstore.Query{
			Collection:     collectionSpecificMeals,
			AllDescendants: true,
			Filter:         docstore.Filter{Field: "used_in_camp", Op: docstore.OpEqual, Value: b.opts.CampID},
		})
		if err != nil {
			return fmt.Errorf("failed to fetch specific meals: %w", err)
		}
		meals, err := camp.DecodeAll[camp.SpecificMeal](docs)
		if err != nil {
			return err
		}
		b.specificMeals = meals
		b.logger.Debug("specific meals fetched", zap.Int("count", len(meals)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cloneMeals(b.specificMeals), nil
}

// Meals returns the meal templates used in the camp. An "&" in a meal name is
// spelled out as "und".
func (b *Builder) Meals(ctx context.Context) ([]camp.Meal, error) {
	err := b.run(ctx, stageMeals, func(ctx context.Context) error {
		docs, err := b.store.Query(ctx, docstore.Query{
			Collection: collectionMeals,
			Filter:     docstore.Filter{Field: "used_in_camps", Op: docstore.OpArrayContains, Value: b.opts.CampID},
		})
		if err != nil {
			return fmt.Errorf("failed to fetch meals: %w", err)
		}
		meals, err := camp.DecodeAll[camp.Meal](docs)
		if err != nil {
			return err
		}
		for i := range meals {
			meals[i].MealName = textsafe.Und(meals[i].MealName)
		}
		b.meals = meals
		b.logger.Debug("meals fetched", zap.Int("count", len(meals)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]camp.Meal, len(b.meals))
	for i, m := range b.meals {
		out[i] = m.Clone()
	}
	return out, nil
}

// Recipes returns the distinct recipes used by the camp's meals. The meal ids
// are sent in chunks of docstore.MaxContainsAny, one query per chunk, all in
// flight at once. A recipe returned by several chunks is kept once, at its
// first position.
func (b *Builder) Recipes(ctx context.Context) ([]camp.Recipe, error) {
	err := b.run(ctx, stageRecipes, func(ctx context.Context) error {
		specific, err := b.SpecificMeals(ctx)
		if err != nil {
			return err
		}
		if _, err := b.Meals(ctx); err != nil {
			return err
		}

		ids := MealIDs(specific)
		if len(ids) == 0 {
			b.recipes = []camp.Recipe{}
			return nil
		}

		chunks := Chunk(ids, docstore.MaxContainsAny)
		results := make([][]docstore.Document, len(chunks))
		g, gctx := errgroup.WithContext(ctx)
		for i, chunk := range chunks {
			g.Go(func() error {
				docs, err := b.store.Query(gctx, docstore.Query{
					Collection: collectionRecipes,
					Filter:     docstore.Filter{Field: "used_in_meals", Op: docstore.OpArrayContainsAny, Value: chunk},
				})
				if err != nil {
					return fmt.Errorf("failed to fetch recipes for chunk %d: %w", i, err)
				}
				results[i] = docs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		seen := make(map[string]bool)
		recipes := []camp.Recipe{}
		for _, docs := range results {
			for _, doc := range docs {
				if seen[doc.ID] {
					continue
				}
				seen[doc.ID] = true

				recipe, err := camp.Decode[camp.Recipe](doc)
				if err != nil {
					return err
				}
				recipes = append(recipes, recipe)
			}
		}
		b.recipes = recipes
		b.logger.Debug("recipes fetched",
			zap.Int("meal_ids", len(ids)),
			zap.Int("chunks", len(chunks)),
			zap.Int("recipes", len(recipes)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]camp.Recipe, len(b.recipes))
	for i, r := range b.recipes {
		out[i] = r.Clone()
	}
	return out, nil
}

// MealIDs returns the distinct meal template ids referenced by meals, in order
// of first appearance.
func MealIDs(meals []camp.SpecificMeal) []string {
	seen := make(map[string]bool, len(meals))
	var ids []string
	for _, m := range meals {
		if seen[m.MealID] {
			continue
		}
		seen[m.MealID] = true
		ids = append(ids, m.MealID)
	}
	return ids
}

// Chunk splits ids into consecutive slices of at most size elements.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	return slices.Collect(slices.Chunk(ids, max(size, 1)))
}
