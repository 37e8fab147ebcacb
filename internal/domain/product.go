package domain

// CatalogEntry is a read-only view of a catalog product
type CatalogEntry struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Brand       string   `json:"brand"`
	SalePrice   float64  `json:"sale_price"`
	MarketPrice float64  `json:"market_price"`
	ImageURL    string   `json:"image_url,omitempty"`
	Description string   `json:"description,omitempty"`
	Rating      *float64 `json:"rating"`
	IsVeg       bool     `json:"is_veg"`
	UnitType    string   `json:"unit_type,omitempty"`
	WeightStr   string   `json:"weight_str,omitempty"`
	Stock       int      `json:"stock"`
}

// SubCategory is a distinct sub-category of a category with a representative image
type SubCategory struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// TextMatchMode selects how a TextFilter compares values. All modes are case-insensitive.
type TextMatchMode int

const (
	MatchContains TextMatchMode = iota
	MatchExact
	MatchPrefix
)

// TextFilter restricts a text column. An empty Value disables the filter.
type TextFilter struct {
	Value string
	Mode  TextMatchMode
}

// Exact builds a case-insensitive equality filter
func Exact(v string) TextFilter { return TextFilter{Value: v, Mode: MatchExact} }

// Prefix builds a case-insensitive prefix filter
func Prefix(v string) TextFilter { return TextFilter{Value: v, Mode: MatchPrefix} }

// Contains builds a case-insensitive substring filter
func Contains(v string) TextFilter { return TextFilter{Value: v, Mode: MatchContains} }

// IsZero reports whether the filter is disabled
func (f TextFilter) IsZero() bool { return f.Value == "" }

// CatalogOrder controls result ordering
type CatalogOrder int

const (
	OrderNone CatalogOrder = iota
	OrderBySalePriceAsc
)

// CatalogQuery describes a read against the catalog. Zero-valued fields do not filter.
type CatalogQuery struct {
	Name        TextFilter
	Brand       TextFilter
	Category    TextFilter
	SubCategory TextFilter
	// AnyName matches rows whose name contains at least one of the keywords
	AnyName  []string
	MinPrice *float64
	MaxPrice *float64
	OrderBy  CatalogOrder
	Offset   int
	Limit    int
}
