package challenge

// DailyTemplate is a candidate daily bonus the generator can draw.
type DailyTemplate struct {
	ConditionKey string
	Description  string
	Points       int64
}

// WeeklyTemplate is a candidate weekly challenge. Templates may share a
// condition key with different targets; the generator never issues the same
// key twice in one week.
type WeeklyTemplate struct {
	ConditionKey string
	Description  string
	Target       int
	Points       int64
}

var DailyCatalog = []DailyTemplate{
	{"before_11am", "Order before 11am", 50},
	{"after_8pm", "Order after 8pm", 40},
	{"lunch_rush", "Brave the lunch rush (11am-2pm)", 30},
	{"happy_hour", "Order during happy hour (3-5pm)", 35},
	{"early_bird", "Order before 9am", 60},
	{"late_night", "Order after 10pm", 50},
	{"on_the_half_hour", "Order exactly on the half hour", 45},
	{"any_sauce", "Add any sauce to your burger", 20},
	{"two_sauces", "Double up on sauces", 35},
	{"any_topping", "Add any topping", 20},
	{"three_toppings", "Stack three or more toppings", 50},
	{"double_patty", "Go double patty", 40},
	{"any_cheese", "Add cheese", 20},
	{"extra_cheese", "Extra cheese, please", 35},
	{"no_cheese", "Skip the cheese entirely", 30},
	{"add_side", "Add a side", 25},
	{"any_drink", "Add a drink", 25},
	{"veggie_patty", "Try a veggie patty", 45},
	{"beef_patty", "Classic beef day", 20},
	{"chicken_patty", "Go with chicken", 30},
	{"spicy_item", "Order something spicy", 40},
	{"bacon_lover", "Add bacon to anything", 30},
	{"brioche_bun", "Pick the brioche bun", 25},
	{"pretzel_bun", "Pick the pretzel bun", 35},
	{"gluten_free_bun", "Go gluten-free", 40},
	{"fries_fan", "Order fries", 20},
	{"onion_rings", "Order onion rings", 30},
	{"shake_time", "Treat yourself to a shake", 35},
	{"mushroom_fan", "Add mushrooms", 30},
	{"avocado_fan", "Add avocado", 35},
	{"pickle_fan", "Add pickles", 25},
	{"big_order", "Spend $20 or more in one order", 55},
	{"mega_order", "Spend $30 or more in one order", 60},
	{"five_items", "Order five or more items", 50},
}

var WeeklyCatalog = []WeeklyTemplate{
	{"weekly_orders", "Order 3 times this week", 3, 100},
	{"weekly_orders", "Order 5 times this week", 5, 150},
	{"weekly_orders", "Order 7 times this week", 7, 200},
	{"lunch_orders", "Grab lunch here 3 times", 3, 110},
	{"breakfast_orders", "Order breakfast twice", 2, 90},
	{"late_night_orders", "Two late-night runs after 10pm", 2, 100},
	{"weekend_orders", "Order on both weekend days", 2, 90},
	{"weekday_orders", "Order every weekday", 5, 160},
	{"early_bird_orders", "Three orders before 9am", 3, 130},
	{"happy_hour_orders", "Hit happy hour twice", 2, 80},
	{"sauce_orders", "Sauce it up on 3 orders", 3, 80},
	{"topping_orders", "Add toppings to 4 orders", 4, 100},
	{"patty_orders", "Order a burger 3 times", 3, 80},
	{"cheese_orders", "Cheese on 3 orders", 3, 80},
	{"drink_orders", "Add a drink to 3 orders", 3, 80},
	{"side_orders", "Add a side to 3 orders", 3, 80},
	{"double_patty_orders", "Go double patty twice", 2, 110},
	{"no_cheese_orders", "Skip cheese on 3 orders", 3, 90},
	{"veggie_orders", "Two veggie orders", 2, 100},
	{"spicy_orders", "Three spicy orders", 3, 120},
	{"bacon_orders", "Bacon on 2 orders", 2, 80},
	{"brioche_orders", "Brioche twice", 2, 70},
	{"fries_orders", "Fries with 3 orders", 3, 80},
	{"onion_ring_orders", "Onion rings twice", 2, 80},
	{"shake_orders", "Two shakes this week", 2, 90},
	{"mushroom_orders", "Mushrooms on 2 orders", 2, 80},
	{"avocado_orders", "Avocado on 2 orders", 2, 90},
	{"pickle_orders", "Pickles on 2 orders", 2, 70},
	{"big_orders", "Two orders of $20 or more", 2, 130},
	{"value_orders", "Three orders of $15 or more", 3, 120},
	{"all_sauces", "Sauce sampler: 3 different sauces on one order, twice", 2, 140},
	{"all_buns", "Bun explorer: 2 different buns on one order, twice", 2, 120},
	{"all_patties", "Patty mixer: 2 different patties on one order, twice", 2, 120},
	{"all_toppings", "Topping tour: 4 different toppings on one order, twice", 2, 140},
	{"spend_dollars", "Spend $50 this week", 50, 150},
	{"spend_dollars", "Spend $100 this week", 100, 250},
}
