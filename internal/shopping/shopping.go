// Package shopping derives the shopping list of a camp from its schedule.
package shopping

import (
	"math"
	"slices"
	"strings"
	"time"

	"camp-export/internal/camp"
	"camp-export/internal/schedule"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type itemKey struct {
	food string
	unit string
}

// totals sums measures per food and unit, remembering first-seen order.
type totals struct {
	order []itemKey
	sum   map[itemKey]float64
}

func (t *totals) add(food, unit string, measure float64) {
	if t.sum == nil {
		t.sum = make(map[itemKey]float64)
	}
	key := itemKey{food: strings.TrimSpace(food), unit: strings.TrimSpace(unit)}
	if _, ok := t.sum[key]; !ok {
		t.order = append(t.order, key)
	}
	t.sum[key] += measure
}

func (t *totals) items(c *collate.Collator) []Item {
	out := make([]Item, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, Item{Food: key.food, Unit: key.unit, Measure: round(t.sum[key])})
	}
	slices.SortStableFunc(out, func(a, b Item) int {
		if n := c.CompareString(a.Food, b.Food); n != 0 {
			return n
		}
		return strings.Compare(a.Unit, b.Unit)
	})
	return out
}

// round drops float noise from summing per-person measures.
func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Build sums the ingredients of every meal in s. Ingredient measures are per
// person and get scaled by camp.Participants. Fresh ingredients are listed
// per day of the meal in loc, everything else in one list for the camp.
// Items are sorted by food in German collation order.
func Build(s *schedule.Schedule, loc *time.Location) *ShoppingList {
	if loc == nil {
		loc = time.UTC
	}
	collator := collate.New(language.German, collate.IgnoreCase)

	var staples totals
	fresh := make(map[time.Time]*totals)
	for _, m := range s.Meals {
		y, mo, d := m.MealDate.In(loc).Date()
		day := time.Date(y, mo, d, 0, 0, 0, 0, loc)

		for _, r := range m.Recipes {
			people := float64(camp.Participants(s.Camp, m, r))
			for _, ing := range r.Ingredients {
				if !ing.IsFresh() {
					staples.add(ing.Food, ing.Unit, ing.Measure*people)
					continue
				}
				t, ok := fresh[day]
				if !ok {
					t = &totals{}
					fresh[day] = t
				}
				t.add(ing.Food, ing.Unit, ing.Measure*people)
			}
		}
	}

	list := &ShoppingList{
		CampID:    s.Camp.DocID,
		Items:     staples.items(collator),
		CreatedAt: s.GeneratedAt,
	}
	days := make([]time.Time, 0, len(fresh))
	for day := range fresh {
		days = append(days, day)
	}
	slices.SortFunc(days, time.Time.Compare)
	for _, day := range days {
		list.Fresh = append(list.Fresh, FreshDay{Date: day, Items: fresh[day].items(collator)})
	}
	return list
}
