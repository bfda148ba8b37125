package api

// Order is a sort direction.
type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// FieldFilter is an equality clause. Against an array field it matches when
// any element equals Eq.
type FieldFilter struct {
	Field string `json:"field"`
	Eq    any    `json:"eq"`
}

// Sort orders results by Fields, pairwise with Order. Missing entries of
// Order default to Asc.
type Sort struct {
	Fields []string `json:"fields"`
	Order  []Order  `json:"order"`
}

// Query is the filter/sort/skip/limit descriptor understood by every graph
// backend. It is built once per resolver call and never mutated.
// Zero Skip and Limit mean unbounded.
type Query struct {
	Filter []FieldFilter `json:"filter,omitempty"`
	Sort   Sort          `json:"sort"`
	Skip   int           `json:"skip,omitempty"`
	Limit  int           `json:"limit,omitempty"`
}
