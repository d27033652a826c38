package expense

import (
	"time"
)

// Category is one label of the fixed category set. Membership is not enforced
// by the store, so any string may show up when reading.
type Category string

const (
	CategoryFoodDrinks    Category = "Food & Drinks"
	CategoryShopping      Category = "Shopping"
	CategoryTransport     Category = "Transportation"
	CategoryBills         Category = "Bills & Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryElectronics   Category = "Electronics"
	CategoryPersonalCare  Category = "Personal Care"
	CategoryOthers        Category = "Others"
)

// Categories lists the selectable categories in display order.
var Categories = []Category{
	CategoryFoodDrinks,
	CategoryShopping,
	CategoryTransport,
	CategoryBills,
	CategoryEntertainment,
	CategoryHealth,
	CategoryEducation,
	CategoryElectronics,
	CategoryPersonalCare,
	CategoryOthers,
}

// DefaultPayVia is reported for records that never stored a payment method.
const DefaultPayVia = "Cash"

// Record is a single spending entry.
type Record struct {
	ID       string
	Amount   string // Decimal text, kept as entered
	PayTo    string
	Category Category
	Date     time.Time
	PayVia   string
}

// PaymentMethod returns PayVia, or DefaultPayVia when it was never set.
func (r Record) PaymentMethod() string {
	if r.PayVia == "" {
		return DefaultPayVia
	}

	return r.PayVia
}

// WithDefaults fills the fields a new record may leave unset.
func (r Record) WithDefaults(now time.Time) Record {
	if r.Date.IsZero() {
		r.Date = now
	}

	if r.Category == "" {
		r.Category = CategoryFoodDrinks
	}

	return r
}

// Session identifies the owner of a collection. Both values are opaque and
// come from the identity endpoint.
type Session struct {
	Token  string
	UserID string
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Amount   *string
	PayTo    *string
	Category *Category
	Date     *time.Time
	PayVia   *string
}

// PatchFrom builds a patch that overwrites every editable field of r.
func PatchFrom(r Record) Patch {
	p := Patch{
		Amount:   &r.Amount,
		PayTo:    &r.PayTo,
		Category: &r.Category,
		Date:     &r.Date,
	}

	if r.PayVia != "" {
		p.PayVia = &r.PayVia
	}

	return p
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Amount == nil && p.PayTo == nil && p.Category == nil && p.Date == nil && p.PayVia == nil
}

// Apply returns r with the present fields of p merged in. The id never changes.
func (p Patch) Apply(r Record) Record {
	if p.Amount != nil {
		r.Amount = *p.Amount
	}

	if p.PayTo != nil {
		r.PayTo = *p.PayTo
	}

	if p.Category != nil {
		r.Category = *p.Category
	}

	if p.Date != nil {
		r.Date = *p.Date
	}

	if p.PayVia != nil {
		r.PayVia = *p.PayVia
	}

	return r
}
