package catalog

const (
	KindTest    = "test"
	KindPackage = "package"
)

// Item is anything that can be booked: a single test or a package.
type Item interface {
	ItemID() string
	ItemName() string
	ItemPrice() float64
	Kind() string
}

type Test struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name" validate:"required"`
	Description             string  `json:"description" validate:"required"`
	Price                   float64 `json:"price" validate:"gte=0"`
	PreparationInstructions string  `json:"preparation_instructions,omitempty"`
	HomeCollectionAvailable bool    `json:"home_collection_available"`
	Category                string  `json:"category,omitempty"`
}

func (t Test) ItemID() string     { return t.ID }
func (t Test) ItemName() string   { return t.Name }
func (t Test) ItemPrice() float64 { return t.Price }
func (t Test) Kind() string       { return KindTest }

type Package struct {
	ID                      string   `json:"id"`
	Name                    string   `json:"name" validate:"required"`
	Description             string   `json:"description" validate:"required"`
	Price                   float64  `json:"price" validate:"gte=0"`
	IncludedTests           []string `json:"included_tests"`
	PreparationInstructions string   `json:"preparation_instructions,omitempty"`
	HomeCollectionAvailable bool     `json:"home_collection_available"`
}

func (p Package) ItemID() string     { return p.ID }
func (p Package) ItemName() string   { return p.Name }
func (p Package) ItemPrice() float64 { return p.Price }
func (p Package) Kind() string       { return KindPackage }

type Membership struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name" validate:"required"`
	Description        string   `json:"description" validate:"required"`
	MonthlyPrice       float64  `json:"monthly_price" validate:"gte=0"`
	Benefits           []string `json:"benefits"`
	DiscountPercentage float64  `json:"discount_percentage" validate:"gte=0,lte=100"`
	PriorityBooking    bool     `json:"priority_booking"`
	FreeHomeCollection bool     `json:"free_home_collection"`
}
