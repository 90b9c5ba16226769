package challenge

import (
	"time"

	"campusgrill-loyalty/services/order"
)

// OrderFacts is everything a condition predicate may look at: the order
// itself plus its local clock position in the campus timezone.
type OrderFacts struct {
	Order   *order.Order
	Hour    int
	Minute  int
	Weekday time.Weekday
}

func BuildFacts(ord *order.Order, loc *time.Location) OrderFacts {
	local := ord.OrderedAt.In(loc)
	return OrderFacts{
		Order:   ord,
		Hour:    local.Hour(),
		Minute:  local.Minute(),
		Weekday: local.Weekday(),
	}
}

// dailyConditions is the closed set of daily predicates. An unknown key is
// simply never met, so a stale generated row can't fire or error.
var dailyConditions = map[string]func(OrderFacts) bool{
	"before_11am":      func(f OrderFacts) bool { return f.Hour < 11 },
	"after_8pm":        func(f OrderFacts) bool { return f.Hour >= 20 },
	"lunch_rush":       func(f OrderFacts) bool { return f.Hour >= 11 && f.Hour < 14 },
	"happy_hour":       func(f OrderFacts) bool { return f.Hour >= 15 && f.Hour < 17 },
	"early_bird":       func(f OrderFacts) bool { return f.Hour < 9 },
	"late_night":       func(f OrderFacts) bool { return f.Hour >= 22 },
	"on_the_half_hour": func(f OrderFacts) bool { return f.Minute == 30 },

	"any_sauce":   func(f OrderFacts) bool { return f.Order.HasCategory(order.CategorySauce) },
	"two_sauces":  func(f OrderFacts) bool { return f.Order.CountInCategory(order.CategorySauce) >= 2 },
	"any_topping": func(f OrderFacts) bool { return f.Order.HasCategory(order.CategoryTopping) },
	"three_toppings": func(f OrderFacts) bool {
		return f.Order.CountInCategory(order.CategoryTopping) >= 3
	},
	"double_patty": func(f OrderFacts) bool { return f.Order.CountInCategory(order.CategoryPatty) >= 2 },
	"any_cheese":   func(f OrderFacts) bool { return f.Order.HasCategory(order.CategoryCheese) },
	"extra_cheese": func(f OrderFacts) bool { return f.Order.CountInCategory(order.CategoryCheese) >= 2 },
	"no_cheese":    func(f OrderFacts) bool { return !f.Order.HasCategory(order.CategoryCheese) },
	"add_side":     func(f OrderFacts) bool { return f.Order.HasCategory(order.CategorySide) },
	"any_drink":    func(f OrderFacts) bool { return f.Order.HasCategory(order.CategoryDrink) },

	"veggie_patty":    func(f OrderFacts) bool { return f.Order.ContainsName("veggie") },
	"beef_patty":      func(f OrderFacts) bool { return f.Order.ContainsName("beef") },
	"chicken_patty":   func(f OrderFacts) bool { return f.Order.ContainsName("chicken") },
	"spicy_item":      func(f OrderFacts) bool { return f.Order.ContainsName("spicy") || f.Order.ContainsName("jalape") },
	"bacon_lover":     func(f OrderFacts) bool { return f.Order.ContainsName("bacon") },
	"brioche_bun":     func(f OrderFacts) bool { return f.Order.ContainsName("brioche") },
	"pretzel_bun":     func(f OrderFacts) bool { return f.Order.ContainsName("pretzel") },
	"gluten_free_bun": func(f OrderFacts) bool { return f.Order.ContainsName("gluten") },
	"fries_fan":       func(f OrderFacts) bool { return f.Order.ContainsName("fries") },
	"onion_rings":     func(f OrderFacts) bool { return f.Order.ContainsName("onion ring") },
	"shake_time":      func(f OrderFacts) bool { return f.Order.ContainsName("shake") },
	"mushroom_fan":    func(f OrderFacts) bool { return f.Order.ContainsName("mushroom") },
	"avocado_fan":     func(f OrderFacts) bool { return f.Order.ContainsName("avocado") },
	"pickle_fan":      func(f OrderFacts) bool { return f.Order.ContainsName("pickle") },

	"big_order":  func(f OrderFacts) bool { return f.Order.TotalPrice >= 20 },
	"mega_order": func(f OrderFacts) bool { return f.Order.TotalPrice >= 30 },
	"five_items": func(f OrderFacts) bool { return totalUnits(f.Order) >= 5 },
}

// weeklyIncrements maps each weekly key to the progress an order contributes.
// Most qualifying orders count 1; the spend keys contribute whole dollars.
// The variety keys count orders that show enough distinct items at once
// rather than tracking distinct values across the week.
var weeklyIncrements = map[string]func(OrderFacts) int{
	"weekly_orders":     func(f OrderFacts) int { return 1 },
	"lunch_orders":      countIf(func(f OrderFacts) bool { return f.Hour >= 11 && f.Hour < 14 }),
	"breakfast_orders":  countIf(func(f OrderFacts) bool { return f.Hour < 10 }),
	"late_night_orders": countIf(func(f OrderFacts) bool { return f.Hour >= 22 }),
	"weekend_orders": countIf(func(f OrderFacts) bool {
		return f.Weekday == time.Saturday || f.Weekday == time.Sunday
	}),
	"weekday_orders": countIf(func(f OrderFacts) bool {
		return f.Weekday != time.Saturday && f.Weekday != time.Sunday
	}),
	"early_bird_orders": countIf(func(f OrderFacts) bool { return f.Hour < 9 }),
	"happy_hour_orders": countIf(func(f OrderFacts) bool { return f.Hour >= 15 && f.Hour < 17 }),

	"sauce_orders":   countIf(func(f OrderFacts) bool { return f.Order.HasCategory(order.CategorySauce) }),
	"topping_orders": countIf(func(f OrderFacts) bool { return f.Order.HasCategory(order.CategoryTopping) }),
	"patty_orders":   countIf(func(f OrderFacts) bool { return f.Order.HasCategory(order.CategoryPatty) }),
	"cheese_orders":  countIf(func(f OrderFacts) bool { return f.Order.HasCategory(order.CategoryCheese) }),
	"drink_orders":   countIf(func(f OrderFacts) bool { return f.Order.HasCategory(order.CategoryDrink) }),
	"side_orders":    countIf(func(f OrderFacts) bool { return f.Order.HasCategory(order.CategorySide) }),
	"double_patty_orders": countIf(func(f OrderFacts) bool {
		return f.Order.CountInCategory(order.CategoryPatty) >= 2
	}),
	"no_cheese_orders": countIf(func(f OrderFacts) bool { return !f.Order.HasCategory(order.CategoryCheese) }),

	"veggie_orders":     countIf(func(f OrderFacts) bool { return f.Order.ContainsName("veggie") }),
	"spicy_orders":      countIf(func(f OrderFacts) bool { return f.Order.ContainsName("spicy") || f.Order.ContainsName("jalape") }),
	"bacon_orders":      countIf(func(f OrderFacts) bool { return f.Order.ContainsName("bacon") }),
	"brioche_orders":    countIf(func(f OrderFacts) bool { return f.Order.ContainsName("brioche") }),
	"fries_orders":      countIf(func(f OrderFacts) bool { return f.Order.ContainsName("fries") }),
	"onion_ring_orders": countIf(func(f OrderFacts) bool { return f.Order.ContainsName("onion ring") }),
	"shake_orders":      countIf(func(f OrderFacts) bool { return f.Order.ContainsName("shake") }),
	"mushroom_orders":   countIf(func(f OrderFacts) bool { return f.Order.ContainsName("mushroom") }),
	"avocado_orders":    countIf(func(f OrderFacts) bool { return f.Order.ContainsName("avocado") }),
	"pickle_orders":     countIf(func(f OrderFacts) bool { return f.Order.ContainsName("pickle") }),

	"big_orders":   countIf(func(f OrderFacts) bool { return f.Order.TotalPrice >= 20 }),
	"value_orders": countIf(func(f OrderFacts) bool { return f.Order.TotalPrice >= 15 }),

	"all_sauces": countIf(func(f OrderFacts) bool {
		return len(f.Order.DistinctInCategory(order.CategorySauce)) >= 3
	}),
	"all_buns": countIf(func(f OrderFacts) bool {
		return len(f.Order.DistinctInCategory(order.CategoryBun)) >= 2
	}),
	"all_patties": countIf(func(f OrderFacts) bool {
		return len(f.Order.DistinctInCategory(order.CategoryPatty)) >= 2
	}),
	"all_toppings": countIf(func(f OrderFacts) bool {
		return len(f.Order.DistinctInCategory(order.CategoryTopping)) >= 4
	}),

	"spend_dollars": func(f OrderFacts) int { return int(f.Order.TotalPrice) },
}

func countIf(pred func(OrderFacts) bool) func(OrderFacts) int {
	return func(f OrderFacts) int {
		if pred(f) {
			return 1
		}
		return 0
	}
}

func totalUnits(o *order.Order) int {
	var n int
	for _, it := range o.Items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		n += qty
	}
	return n
}

// DailyMet evaluates a daily condition key against an order.
func DailyMet(key string, facts OrderFacts) bool {
	pred, ok := dailyConditions[key]
	if !ok {
		return false
	}
	return pred(facts)
}

// WeeklyIncrement returns how much progress an order contributes toward a
// weekly condition key. Unknown keys contribute nothing.
func WeeklyIncrement(key string, facts OrderFacts) int {
	fn, ok := weeklyIncrements[key]
	if !ok {
		return 0
	}
	return fn(facts)
}
