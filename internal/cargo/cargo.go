// Package cargo defines the record shapes that flow through the pipeline:
// raw (possibly malformed) cargo rows as produced by the generator, clean rows
// that satisfy every validity invariant, and the fixed lookup tables both are
// checked against.
//
// The lookup tables are package-level values built once at init and never
// mutated; callers must treat the exported slices as read-only.
package cargo

// Category is one of the fixed product categories.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryCleaning    Category = "cleaning"
	CategoryApparel     Category = "apparel"
	CategoryFood        Category = "food"
	CategoryBooks       Category = "books"
	CategoryCosmetics   Category = "cosmetics"
	CategoryHomeLiving  Category = "homeliving"
	CategoryToys        Category = "toys"
	CategorySports      Category = "sports"
)

// Status is a delivery lifecycle label. It is a flat label here; no
// transitions are modelled.
type Status string

const (
	StatusPreparing      Status = "PREPARING"
	StatusAtBranch       Status = "AT_BRANCH"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusDeliveryFailed Status = "DELIVERY_FAILED"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryCleaning,
	CategoryApparel,
	CategoryFood,
	CategoryBooks,
	CategoryCosmetics,
	CategoryHomeLiving,
	CategoryToys,
	CategorySports,
}

// Statuses lists every valid Status in lifecycle order.
var Statuses = []Status{
	StatusPreparing,
	StatusAtBranch,
	StatusOutForDelivery,
	StatusDelivered,
	StatusDeliveryFailed,
}

var (
	categorySet = make(map[Category]struct{}, len(Categories))
	statusSet   = make(map[Status]struct{}, len(Statuses))
)

func init() {
	for _, c := range Categories {
		categorySet[c] = struct{}{}
	}
	for _, s := range Statuses {
		statusSet[s] = struct{}{}
	}
}

// Valid reports whether c is a member of the fixed category set.
func (c Category) Valid() bool {
	_, ok := categorySet[c]
	return ok
}

// Valid reports whether s is a member of the fixed status set.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// RawCargo is a generated row that may violate any of the clean invariants.
// A nil Status or Kg stands for the null-status and null-weight defects.
type RawCargo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Price     float64  `json:"price"`
	Status    *Status  `json:"status"`
	Kg        *float64 `json:"kg"`
	CreatedAt int64    `json:"createdAt"` // epoch milliseconds
}

// CleanCargo is a row that passed every validity check: the status is a
// valid member, kg is finite, price is finite and non-negative, the id is a
// well-formed v4 UUID unique within its batch and the category is valid.
type CleanCargo struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Price     float64  `json:"price"`
	Status    Status   `json:"status"`
	Kg        float64  `json:"kg"`
	CreatedAt int64    `json:"createdAt"`
}

// View is the subset of fields shared by raw and clean rows that filters
// look at.
type View struct {
	Category Category
	Price    float64
	Name     string
	Kg       float64
	HasKg    bool
}

// Viewer is implemented by every row type the filter engine accepts.
type Viewer interface {
	View() View
}

// View implements Viewer.
func (c RawCargo) View() View {
	v := View{Category: c.Category, Price: c.Price, Name: c.Name}
	if c.Kg != nil {
		v.Kg, v.HasKg = *c.Kg, true
	}
	return v
}

// View implements Viewer.
func (c CleanCargo) View() View {
	return View{Category: c.Category, Price: c.Price, Name: c.Name, Kg: c.Kg, HasKg: true}
}

// StatusPtr returns a pointer to a copy of s.
func StatusPtr(s Status) *Status { return &s }

// KgPtr returns a pointer to a copy of kg.
func KgPtr(kg float64) *float64 { return &kg }
