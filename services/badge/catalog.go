package badge

import (
	"time"

	"campusgrill-loyalty/services/order"
)

// Facts is the evidence a badge predicate may inspect: the triggering order
// and the member's full order history (the triggering order included).
type Facts struct {
	Order   *order.Order
	History []*order.Order
	Loc     *time.Location
}

func (f Facts) orderCount() int { return len(f.History) }

func (f Facts) countWhere(pred func(*order.Order) bool) int {
	var n int
	for _, o := range f.History {
		if pred(o) {
			n++
		}
	}
	return n
}

func (f Facts) localHour(o *order.Order) int {
	return o.OrderedAt.In(f.Loc).Hour()
}

func (f Facts) lifetimeSpend() float64 {
	var total float64
	for _, o := range f.History {
		total += o.TotalPrice
	}
	return total
}

func (f Facts) distinctSauces() int {
	names := make(map[string]bool)
	for _, o := range f.History {
		for name := range o.DistinctInCategory(order.CategorySauce) {
			names[name] = true
		}
	}
	return len(names)
}

// Definition pairs a badge's catalog row with the predicate that grants it.
type Definition struct {
	Slug        string
	Name        string
	Description string
	Type        Type
	Rarity      Rarity
	Points      int64
	Granted     func(Facts) bool
}

var Catalog = []Definition{
	{
		Slug: "first_bite", Name: "First Bite",
		Description: "Place your first order",
		Type:        TypeMilestone, Rarity: RarityCommon, Points: 50,
		Granted: func(f Facts) bool { return f.orderCount() >= 1 },
	},
	{
		Slug: "regular", Name: "Regular",
		Description: "Place 10 orders",
		Type:        TypeMilestone, Rarity: RarityUncommon, Points: 100,
		Granted: func(f Facts) bool { return f.orderCount() >= 10 },
	},
	{
		Slug: "campus_legend", Name: "Campus Legend",
		Description: "Place 50 orders",
		Type:        TypeMilestone, Rarity: RarityRare, Points: 250,
		Granted: func(f Facts) bool { return f.orderCount() >= 50 },
	},
	{
		Slug: "hall_of_famer", Name: "Hall of Famer",
		Description: "Place 100 orders",
		Type:        TypeMilestone, Rarity: RarityLegendary, Points: 500,
		Granted: func(f Facts) bool { return f.orderCount() >= 100 },
	},
	{
		Slug: "sauce_connoisseur", Name: "Sauce Connoisseur",
		Description: "Try 6 different sauces",
		Type:        TypeVariety, Rarity: RarityRare, Points: 150,
		Granted: func(f Facts) bool { return f.distinctSauces() >= 6 },
	},
	{
		Slug: "lunch_regular", Name: "Lunch Regular",
		Description: "10 orders during the lunch rush",
		Type:        TypeTime, Rarity: RarityUncommon, Points: 150,
		Granted: func(f Facts) bool {
			return f.countWhere(func(o *order.Order) bool {
				h := f.localHour(o)
				return h >= 11 && h < 14
			}) >= 10
		},
	},
	{
		Slug: "early_riser", Name: "Early Riser",
		Description: "5 orders before 9am",
		Type:        TypeTime, Rarity: RarityUncommon, Points: 120,
		Granted: func(f Facts) bool {
			return f.countWhere(func(o *order.Order) bool { return f.localHour(o) < 9 }) >= 5
		},
	},
	{
		Slug: "night_owl", Name: "Night Owl",
		Description: "5 orders after 10pm",
		Type:        TypeTime, Rarity: RarityUncommon, Points: 120,
		Granted: func(f Facts) bool {
			return f.countWhere(func(o *order.Order) bool { return f.localHour(o) >= 22 }) >= 5
		},
	},
	{
		Slug: "big_spender", Name: "Big Spender",
		Description: "Spend $30 in a single order",
		Type:        TypeSpending, Rarity: RarityCommon, Points: 100,
		Granted: func(f Facts) bool { return f.Order.TotalPrice >= 30 },
	},
	{
		Slug: "high_roller", Name: "High Roller",
		Description: "Spend $250 lifetime",
		Type:        TypeSpending, Rarity: RarityRare, Points: 300,
		Granted: func(f Facts) bool { return f.lifetimeSpend() >= 250 },
	},
	{
		Slug: "weekend_warrior", Name: "Weekend Warrior",
		Description: "8 weekend orders",
		Type:        TypeTime, Rarity: RarityRare, Points: 150,
		Granted: func(f Facts) bool {
			return f.countWhere(func(o *order.Order) bool {
				wd := o.OrderedAt.In(f.Loc).Weekday()
				return wd == time.Saturday || wd == time.Sunday
			}) >= 8
		},
	},
	{
		Slug: "variety_pack", Name: "Variety Pack",
		Description: "Items from 5 categories in one order",
		Type:        TypeVariety, Rarity: RarityCommon, Points: 100,
		Granted: func(f Facts) bool {
			cats := make(map[order.Category]bool)
			for _, it := range f.Order.Items {
				cats[it.Category] = true
			}
			return len(cats) >= 5
		},
	},
	{
		Slug: "double_trouble", Name: "Double Trouble",
		Description: "5 double-patty orders",
		Type:        TypeVariety, Rarity: RarityUncommon, Points: 150,
		Granted: func(f Facts) bool {
			return f.countWhere(func(o *order.Order) bool {
				return o.CountInCategory(order.CategoryPatty) >= 2
			}) >= 5
		},
	},
	{
		Slug: "shake_enthusiast", Name: "Shake Enthusiast",
		Description: "10 orders with a shake",
		Type:        TypeVariety, Rarity: RarityUncommon, Points: 150,
		Granted: func(f Facts) bool {
			return f.countWhere(func(o *order.Order) bool { return o.ContainsName("shake") }) >= 10
		},
	},
}
