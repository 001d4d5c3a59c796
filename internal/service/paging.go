package service

import (
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
	"github.com/parisxmas/OxiDB/OxiWL/internal/repository"
)

// MaxPageSize caps pageOffset on list endpoints.
const MaxPageSize = 100

// listWindow turns a list request into repository parameters. Unknown sort
// keys fall back to the id; out-of-range pages yield an empty window.
func listWindow(q pager.Query, sortable map[string]string) (pager.Query, repository.ListParams) {
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	field, ok := sortable[q.SortBy]
	if !ok {
		q.SortBy = "id"
		field = "_id"
	}
	if q.OrderBy != pager.Asc {
		q.OrderBy = pager.Desc
	}
	return q, repository.ListParams{
		SortField: field,
		Desc:      q.OrderBy == pager.Desc,
		Skip:      (q.Page - 1) * q.PageSize,
		Limit:     q.PageSize,
	}
}

// pageMeta describes the window of n items starting at the query's offset.
// From and To stay zero for an empty window.
func pageMeta(q pager.Query, total, n int) pager.Meta {
	last := (total + q.PageSize - 1) / q.PageSize
	if last < 1 {
		last = 1
	}
	m := pager.Meta{
		Total:       total,
		CurrentPage: q.Page,
		PerPage:     q.PageSize,
		LastPage:    last,
	}
	if n > 0 {
		m.From = (q.Page-1)*q.PageSize + 1
		m.To = m.From + n - 1
	}
	return m
}
