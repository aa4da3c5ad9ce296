package pagination

// Meta describes the page of results that was returned.
type Meta struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	Returned   int  `json:"returned"`
	TotalItems int  `json:"total_items"`
	HasNext    bool `json:"has_next"`
}

// NewMeta creates metadata from parameters and total count.
func NewMeta(params Params, totalCount int) Meta {
	start, end := params.Window(totalCount)
	return Meta{
		Offset:     start,
		Limit:      params.Limit,
		Returned:   end - start,
		TotalItems: totalCount,
		HasNext:    end < totalCount,
	}
}

// Page applies p to items and returns the selected page with its metadata.
func Page[T any](items []T, p Params) ([]T, Meta) {
	start, end := p.Window(len(items))
	return items[start:end], NewMeta(p, len(items))
}
