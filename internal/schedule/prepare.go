package schedule

import (
	"context"
	"slices"
	"time"
)

// PrepareMeal is a meal that is cooked ahead of the day it is served.
type PrepareMeal struct {
	SpecificMealID   string    `json:"specific_meal_id"`
	MealName         string    `json:"meal_name"`
	MealWeekviewName string    `json:"meal_weekview_name"`
	MealUsedAs       string    `json:"meal_used_as"`
	MealDate         time.Time `json:"meal_date"`
}

// PrepareDay lists the meals to prepare on one day.
type PrepareDay struct {
	Date  time.Time     `json:"date"`
	Meals []PrepareMeal `json:"meals"`
}

// PrepareView groups the meals flagged for preparation by their prepare day
// in loc, earliest day first. Within a day meals keep schedule order. A meal
// without a prepare date is prepared on the day it is served.
func (s *Schedule) PrepareView(loc *time.Location) []PrepareDay {
	if loc == nil {
		loc = time.UTC
	}

	var days []PrepareDay
	index := make(map[civilDate]int)
	for _, m := range s.Meals {
		if !m.MealGetsPrepared {
			continue
		}
		when := m.MealPrepareDate
		if when.IsZero() {
			when = m.MealDate
		}

		key := dateIn(when, loc)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, PrepareDay{Date: time.Date(key.year, key.month, key.day, 0, 0, 0, 0, loc)})
		}
		days[i].Meals = append(days[i].Meals, PrepareMeal{
			SpecificMealID:   m.DocID,
			MealName:         m.MealName,
			MealWeekviewName: m.MealWeekviewName,
			MealUsedAs:       m.MealUsedAs,
			MealDate:         m.MealDate,
		})
	}

	slices.SortStableFunc(days, func(a, b PrepareDay) int {
		return a.Date.Compare(b.Date)
	})
	return days
}

// PrepareView builds the schedule and groups the meals to prepare ahead with
// the configured location.
func (b *Builder) PrepareView(ctx context.Context) ([]PrepareDay, error) {
	s, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	return s.PrepareView(b.opts.Location), nil
}
