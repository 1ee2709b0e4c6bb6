package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCategory marks a meal whose category is not in the
	// configured meal types.
	ErrUnknownCategory = errors.New("unknown meal category")
	// ErrMissingDays is returned for a camp document without a days list.
	ErrMissingDays = errors.New("camp document has no days")
)

// UnknownCategoryError names the meal that could not be ranked.
type UnknownCategoryError struct {
	Category       string
	SpecificMealID string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("specific meal %s: %s %q", e.SpecificMealID, ErrUnknownCategory, e.Category)
}

// Is lets errors.Is match ErrUnknownCategory.
func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}
