package order

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Category classifies a line item on the storefront menu.
type Category string

const (
	CategoryBun     Category = "bun"
	CategoryCheese  Category = "cheese"
	CategoryPatty   Category = "patty"
	CategorySauce   Category = "sauce"
	CategoryTopping Category = "topping"
	CategorySide    Category = "side"
	CategoryDrink   Category = "drink"
)

// Order is a paid storefront order as reported by the order/payment
// collaborator. The engine persists a copy so history-based badge and
// challenge predicates can read past orders.
type Order struct {
	ID            string    `gorm:"column:id;primaryKey"`
	MemberID      string    `gorm:"column:member_id;index;not null"`
	TotalPrice    float64   `gorm:"column:total_price;not null"`
	OriginalTotal float64   `gorm:"column:original_total"`
	Priority      bool      `gorm:"column:priority;default:false"`
	Status        string    `gorm:"column:status;type:varchar(20);default:'paid'"`
	OrderedAt     time.Time `gorm:"column:ordered_at;index;not null"` // UTC
	// Metadata carries collaborator fields the engine stores but does not
	// interpret (table number, pickup notes).
	Metadata  datatypes.JSON `gorm:"column:metadata"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	Items     []OrderItem    `gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	ID         string   `gorm:"column:id;primaryKey"`
	OrderID    string   `gorm:"column:order_id;index;not null"`
	MenuItemID *string  `gorm:"column:menu_item_id"`
	Name       string   `gorm:"column:name;not null"`
	Category   Category `gorm:"column:category;type:varchar(20);not null"`
	Price      float64  `gorm:"column:price;not null"`
	Quantity   int      `gorm:"column:quantity;not null;default:1"`
}

func (i OrderItem) LineTotal() float64 {
	qty := i.Quantity
	if qty < 1 {
		qty = 1
	}
	return i.Price * float64(qty)
}

// CategoryTotal sums the line totals of all items in the given category.
func (o *Order) CategoryTotal(cat Category) float64 {
	var total float64
	for _, it := range o.Items {
		if it.Category == cat {
			total += it.LineTotal()
		}
	}
	return total
}

func (o *Order) HasCategory(cat Category) bool {
	for _, it := range o.Items {
		if it.Category == cat {
			return true
		}
	}
	return false
}

// ContainsName reports whether any line item name contains the given
// substring, case-insensitively.
func (o *Order) ContainsName(substr string) bool {
	needle := strings.ToLower(substr)
	for _, it := range o.Items {
		if strings.Contains(strings.ToLower(it.Name), needle) {
			return true
		}
	}
	return false
}

// DistinctInCategory returns the distinct lowercased item names in a category.
func (o *Order) DistinctInCategory(cat Category) map[string]bool {
	names := make(map[string]bool)
	for _, it := range o.Items {
		if it.Category == cat {
			names[strings.ToLower(it.Name)] = true
		}
	}
	return names
}

// CountInCategory counts ordered units in a category, quantity included.
func (o *Order) CountInCategory(cat Category) int {
	var n int
	for _, it := range o.Items {
		if it.Category == cat {
			qty := it.Quantity
			if qty < 1 {
				qty = 1
			}
			n += qty
		}
	}
	return n
}
