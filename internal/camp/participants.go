package camp

// Participants returns how many people recipe r is cooked for when it is
// served at meal m of camp c. A recipe level override wins over a meal level
// one; otherwise the recipe's group decides which camp count applies.
func Participants(c CampMeta, m SpecificMeal, r Recipe) int {
	if r.RecipeOverrideParticipants {
		return max(r.RecipeParticipants, 0)
	}

	all := c.CampParticipants
	if m.MealOverrideParticipants {
		all = m.MealParticipants
	}

	switch r.RecipeUsedFor {
	case UsedForVegetarians:
		return max(c.CampVegetarians, 0)
	case UsedForNonVegetarians:
		return max(all-c.CampVegetarians, 0)
	case UsedForLeaders:
		return max(c.CampLeaders, 0)
	default:
		return max(all, 0)
	}
}
