package schedule

import (
	"context"
	"time"
)

// WeekViewRow is one meal category of the week overview table.
type WeekViewRow struct {
	Category string `json:"category"`
	// Cells has one entry per camp day, holding the week view names of the
	// meals of this category on that day.
	Cells [][]string `json:"cells"`
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateIn(t time.Time, loc *time.Location) civilDate {
	y, m, d := t.In(loc).Date()
	return civilDate{y, m, d}
}

// WeekView lays the meals out as a category by day table. Rows follow
// mealTypes and only categories with at least one meal on a camp day get a
// row. Meals outside the camp days are left out.
func (s *Schedule) WeekView(mealTypes []string, loc *time.Location) []WeekViewRow {
	if loc == nil {
		loc = time.UTC
	}

	dayIndex := make(map[civilDate]int, len(s.Camp.Days))
	for i, d := range s.Camp.Days {
		key := dateIn(d.DayDate, loc)
		if _, ok := dayIndex[key]; !ok {
			dayIndex[key] = i
		}
	}

	var rows []WeekViewRow
	for _, category := range mealTypes {
		key := categoryKey(category)
		var row *WeekViewRow
		for _, m := range s.Meals {
			if categoryKey(m.MealUsedAs) != key {
				continue
			}
			i, ok := dayIndex[dateIn(m.MealDate, loc)]
			if !ok {
				continue
			}
			if row == nil {
				rows = append(rows, WeekViewRow{Category: category, Cells: make([][]string, len(s.Camp.Days))})
				row = &rows[len(rows)-1]
			}
			row.Cells[i] = append(row.Cells[i], m.MealWeekviewName)
		}
	}
	return rows
}

// WeekView builds the schedule and lays it out with the configured meal types
// and location.
func (b *Builder) WeekView(ctx context.Context) ([]WeekViewRow, error) {
	s, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	return s.WeekView(b.opts.MealTypes, b.opts.Location), nil
}
