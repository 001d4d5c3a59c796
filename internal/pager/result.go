package pager

// Meta is the page metadata block of a list API response.
type Meta struct {
	From        int `json:"from"`
	To          int `json:"to"`
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	LastPage    int `json:"last_page"`
}

// Envelope is the body of a list API response.
type Envelope[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// Result is a page of items with its pagination info, as shown to the
// operator. From and To are zero when the list is empty.
type Result[T any] struct {
	Items       []T `json:"items"`
	From        int `json:"from"`
	To          int `json:"to"`
	Total       int `json:"total"`
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	LastPage    int `json:"lastPage"`
}

// Normalize maps an API envelope onto a Result. Field renaming is the only
// transformation.
func Normalize[T any](env Envelope[T]) Result[T] {
	items := env.Data
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:       items,
		From:        env.Meta.From,
		To:          env.Meta.To,
		Total:       env.Meta.Total,
		CurrentPage: env.Meta.CurrentPage,
		PerPage:     env.Meta.PerPage,
		LastPage:    env.Meta.LastPage,
	}
}

// Empty reports whether the page holds no items.
func (r Result[T]) Empty() bool {
	return len(r.Items) == 0
}

// Pages returns up to limit page numbers centred on the current page and
// clamped to [1, LastPage].
func (r Result[T]) Pages(limit int) []int {
	if r.LastPage < 1 || limit < 1 {
		return []int{}
	}
	if limit > r.LastPage {
		limit = r.LastPage
	}
	cur := r.CurrentPage
	if cur < 1 {
		cur = 1
	}
	if cur > r.LastPage {
		cur = r.LastPage
	}
	start := cur - limit/2
	if start < 1 {
		start = 1
	}
	if start+limit-1 > r.LastPage {
		start = r.LastPage - limit + 1
	}
	out := make([]int, limit)
	for i := range out {
		out[i] = start + i
	}
	return out
}
