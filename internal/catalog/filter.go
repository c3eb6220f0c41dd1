package catalog

// ItemFilter specifies criteria for listing items.
type ItemFilter struct {
	Category *Category
	Kind     *Kind
	Limit    int // 0 = no limit
	Offset   int
}
