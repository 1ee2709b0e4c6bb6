// Package camp holds the records the schedule export reads from the document
// store, decoded into typed values.
package camp

import (
	"slices"
	"time"
)

// User is the owner profile of a camp. It only feeds report headers.
type User struct {
	DocID       string `firestore:"-" json:"doc_id"`
	DisplayName string `firestore:"displayName" json:"displayName"`
	Email       string `firestore:"email" json:"email"`
	Visibility  string `firestore:"visibility" json:"visibility,omitempty"`
}

// Day is one day of a camp.
type Day struct {
	DayDate        time.Time `firestore:"day_date" json:"day_date"`
	DayDescription string    `firestore:"day_description" json:"day_description"`
	DayNotes       string    `firestore:"day_notes" json:"day_notes"`
}

// CampMeta is the camp document.
type CampMeta struct {
	DocID            string `firestore:"-" json:"doc_id"`
	CampName         string `firestore:"camp_name" json:"camp_name"`
	CampDescription  string `firestore:"camp_description" json:"camp_description"`
	CampYear         string `firestore:"camp_year" json:"camp_year"`
	CampParticipants int    `firestore:"camp_participants" json:"camp_participants"`
	CampVegetarians  int    `firestore:"camp_vegetarians" json:"camp_vegetarians"`
	CampLeaders      int    `firestore:"camp_leaders" json:"camp_leaders"`
	Days             []Day  `firestore:"days" json:"days"`
}

// SortDays orders the days by date, oldest first.
func (c *CampMeta) SortDays() {
	slices.SortStableFunc(c.Days, func(a, b Day) int {
		return a.DayDate.Compare(b.DayDate)
	})
}

// Clone returns a deep copy.
func (c CampMeta) Clone() CampMeta {
	c.Days = slices.Clone(c.Days)
	return c
}

// Meal is a reusable meal template, shared between camps.
type Meal struct {
	DocID           string   `firestore:"-" json:"doc_id"`
	MealName        string   `firestore:"meal_name" json:"meal_name"`
	MealDescription string   `firestore:"meal_description" json:"meal_description"`
	MealKeywords    []string `firestore:"meal_keywords" json:"meal_keywords,omitempty"`
	UsedInCamps     []string `firestore:"used_in_camps" json:"used_in_camps"`
}

// Clone returns a deep copy.
func (m Meal) Clone() Meal {
	m.MealKeywords = slices.Clone(m.MealKeywords)
	m.UsedInCamps = slices.Clone(m.UsedInCamps)
	return m
}

// SpecificMeal is one occurrence of a Meal in a camp. MealName,
// MealDescription and Recipes are filled in by the schedule join.
type SpecificMeal struct {
	DocID                    string    `firestore:"-" json:"doc_id"`
	MealID                   string    `firestore:"meal_id" json:"meal_id"`
	UsedInCamp               string    `firestore:"used_in_camp" json:"used_in_camp"`
	MealUsedAs               string    `firestore:"meal_used_as" json:"meal_used_as"`
	MealDate                 time.Time `firestore:"meal_date" json:"meal_date"`
	MealWeekviewName         string    `firestore:"meal_weekview_name" json:"meal_weekview_name"`
	MealParticipants         int       `firestore:"meal_participants" json:"meal_participants"`
	MealOverrideParticipants bool      `firestore:"meal_override_participants" json:"meal_override_participants"`
	MealGetsPrepared         bool      `firestore:"meal_gets_prepared" json:"meal_gets_prepared"`
	MealPrepareDate          time.Time `firestore:"meal_prepare_date" json:"meal_prepare_date"`

	MealName        string   `firestore:"-" json:"meal_name,omitempty"`
	MealDescription string   `firestore:"-" json:"meal_description,omitempty"`
	Recipes         []Recipe `firestore:"-" json:"recipe,omitempty"`
}

// Clone returns a deep copy, including every attached recipe.
func (s SpecificMeal) Clone() SpecificMeal {
	if s.Recipes != nil {
		recipes := make([]Recipe, len(s.Recipes))
		for i, r := range s.Recipes {
			recipes[i] = r.Clone()
		}
		s.Recipes = recipes
	}
	return s
}

// Ingredient is one line of a recipe. Fresh is nil when the record has no
// fresh flag.
type Ingredient struct {
	Food    string  `firestore:"food" json:"food"`
	Measure float64 `firestore:"measure" json:"measure"`
	Unit    string  `firestore:"unit" json:"unit"`
	Comment string  `firestore:"comment" json:"comment"`
	Fresh   *bool   `firestore:"fresh" json:"fresh,omitempty"`
}

// IsFresh reports the fresh flag, treating a missing flag as false.
func (i Ingredient) IsFresh() bool {
	return i.Fresh != nil && *i.Fresh
}

// Recipe is a recipe document. The fields after UsedInMeals only exist on
// copies attached to a SpecificMeal.
type Recipe struct {
	DocID             string       `firestore:"-" json:"doc_id"`
	RecipeName        string       `firestore:"recipe_name" json:"recipe_name"`
	RecipeDescription string       `firestore:"recipe_description" json:"recipe_description"`
	RecipeNotes       string       `firestore:"recipe_notes" json:"recipe_notes"`
	Ingredients       []Ingredient `firestore:"ingredients" json:"ingredients"`
	UsedInMeals       []string     `firestore:"used_in_meals" json:"used_in_meals"`

	UniqueID                   string `firestore:"-" json:"unique_id,omitempty"`
	RecipeUsedFor              string `firestore:"-" json:"recipe_used_for,omitempty"`
	RecipeParticipants         int    `firestore:"-" json:"recipe_participants"`
	RecipeOverrideParticipants bool   `firestore:"-" json:"recipe_override_participants"`
}

// Clone returns a deep copy that shares no mutable state with r.
func (r Recipe) Clone() Recipe {
	if r.Ingredients != nil {
		ingredients := make([]Ingredient, len(r.Ingredients))
		for i, ing := range r.Ingredients {
			if ing.Fresh != nil {
				fresh := *ing.Fresh
				ing.Fresh = &fresh
			}
			ingredients[i] = ing
		}
		r.Ingredients = ingredients
	}
	r.UsedInMeals = slices.Clone(r.UsedInMeals)
	return r
}

// UsedIn reports whether the recipe belongs to the meal template mealID.
func (r Recipe) UsedIn(mealID string) bool {
	return slices.Contains(r.UsedInMeals, mealID)
}

// Apply copies the override values onto the recipe.
func (r *Recipe) Apply(o RecipeOverride) {
	r.RecipeUsedFor = o.RecipeUsedFor
	r.RecipeParticipants = o.RecipeParticipants
	r.RecipeOverrideParticipants = o.RecipeOverrideParticipants
}

// Participant groups a recipe can be cooked for.
const (
	UsedForAll            = "all"
	UsedForVegetarians    = "vegetarians"
	UsedForNonVegetarians = "non-vegetarians"
	UsedForLeaders        = "leaders"
)

// RecipeOverride holds the camp specific settings of a recipe attached to
// one SpecificMeal.
type RecipeOverride struct {
	DocID                      string `firestore:"-" json:"doc_id"`
	RecipeUsedFor              string `firestore:"recipe_used_for" json:"recipe_used_for"`
	RecipeParticipants         int    `firestore:"recipe_participants" json:"recipe_participants"`
	RecipeOverrideParticipants bool   `firestore:"recipe_override_participants" json:"recipe_override_participants"`
	RecipeSpecificID           string `firestore:"recipe_specificId" json:"recipe_specificId,omitempty"`
	UsedInCamp                 string `firestore:"used_in_camp" json:"used_in_camp,omitempty"`
}

// DefaultOverride is used when a recipe was added to a meal after the meal was
// last opened in this camp, so no override document exists yet.
// RecipeParticipants is ignored while RecipeOverrideParticipants is false.
func DefaultOverride() RecipeOverride {
	return RecipeOverride{
		RecipeUsedFor:              UsedForAll,
		RecipeParticipants:         0,
		RecipeOverrideParticipants: false,
	}
}

// OverridePath is the document path of the override for recipeID within the
// specific meal specificMealID.
func OverridePath(recipeID, specificMealID string) string {
	return "recipes/" + recipeID + "/specificRecipes/" + specificMealID
}

// UniqueRecipeID identifies a recipe attached to a specific meal.
func UniqueRecipeID(specificMealID, recipeID string) string {
	return specificMealID + "::" + recipeID
}
