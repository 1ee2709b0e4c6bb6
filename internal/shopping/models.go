package shopping

import "time"

// Item is one line of a shopping list: the total amount of a food in one
// unit.
type Item struct {
	Food    string  `json:"food"`
	Unit    string  `json:"unit"`
	Measure float64 `json:"measure"`
}

// FreshDay holds the fresh items needed for the meals of one day. They are
// bought close to that day instead of before the camp.
type FreshDay struct {
	Date  time.Time `json:"date"`
	Items []Item    `json:"items"`
}

// ShoppingList represents the shopping list of a camp schedule.
type ShoppingList struct {
	CampID    string     `json:"camp_id"`
	Items     []Item     `json:"items"`
	Fresh     []FreshDay `json:"fresh"`
	CreatedAt time.Time  `json:"created_at"`
}

// Len returns the number of lines over the whole list.
func (l *ShoppingList) Len() int {
	n := len(l.Items)
	for _, d := range l.Fresh {
		n += len(d.Items)
	}
	return n
}
