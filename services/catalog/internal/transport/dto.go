package transport

// Prices may be sent as JSON numbers or strings.

type VariationRequest struct {
	Color string `json:"color"`
	Size  string `json:"size"`
	Price any    `json:"price"`
	Stock *int   `json:"stock"`
}

type CreateProductRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       any                `json:"price"`
	Stock       *int               `json:"stock"`
	Image       string             `json:"image"`
	Variations  []VariationRequest `json:"variations"`
}

// PatchProductRequest changes only the fields that are present. Variations,
// when present, replace the whole list.
type PatchProductRequest struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Price       any                 `json:"price"`
	Stock       *int                `json:"stock"`
	Image       *string             `json:"image"`
	Variations  *[]VariationRequest `json:"variations"`
}
