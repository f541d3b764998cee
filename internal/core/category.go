package core

// Category is one of the fixed expense classification keys. The set is
// closed: aggregation queries group by it and the gateway maps each key to a
// display name, so unknown keys never reach clients.
type Category string

const (
	CategoryFoodGrocery   Category = "FOOD_GROCERY"
	CategoryEducation     Category = "EDUCATION"
	CategoryRentsBills    Category = "RENTS_BILLS"
	CategoryHealthcare    Category = "HEALTHCARE"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryTravel        Category = "TRAVEL"
	CategoryOthers        Category = "OTHERS"
	CategoryLoanEMI       Category = "LOAN_EMI"
)

// Categories lists every valid key in display order.
func Categories() []Category {
	return []Category{
		CategoryFoodGrocery,
		CategoryEducation,
		CategoryRentsBills,
		CategoryHealthcare,
		CategoryEntertainment,
		CategoryTravel,
		CategoryOthers,
		CategoryLoanEMI,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFoodGrocery, CategoryEducation, CategoryRentsBills,
		CategoryHealthcare, CategoryEntertainment, CategoryTravel,
		CategoryOthers, CategoryLoanEMI:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}
