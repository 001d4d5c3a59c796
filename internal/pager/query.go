package pager

import (
	"net/url"
	"strconv"
	"strings"
)

type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// URL parameter names shared by the list API and the console location.
const (
	ParamOrderBy  = "orderBy"
	ParamSortBy   = "sortBy"
	ParamPageSize = "pageOffset"
	ParamPage     = "page"
)

// Query is the sort/page request for one page of a remote list.
type Query struct {
	SortBy   string `json:"sortBy"`
	OrderBy  Order  `json:"orderBy"`
	PageSize int    `json:"pageOffset"`
	Page     int    `json:"page"`
}

// DefaultQuery returns the newest-first first page of size pageSize.
func DefaultQuery(pageSize int) Query {
	if pageSize < 1 {
		pageSize = 10
	}
	return Query{SortBy: "id", OrderBy: Desc, PageSize: pageSize, Page: 1}
}

// ParseQuery reads the four list parameters from values. Anything missing
// or malformed takes its value from defaults.
func ParseQuery(values url.Values, defaults Query) Query {
	q := defaults
	if v := values.Get(ParamSortBy); v != "" {
		q.SortBy = v
	}
	if o, ok := ParseOrder(values.Get(ParamOrderBy)); ok {
		q.OrderBy = o
	}
	if n, ok := positiveInt(values.Get(ParamPageSize)); ok {
		q.PageSize = n
	}
	if n, ok := positiveInt(values.Get(ParamPage)); ok {
		q.Page = n
	}
	return q
}

// ParseOrder accepts ASC or DESC in any case.
func ParseOrder(s string) (Order, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(Asc):
		return Asc, true
	case string(Desc):
		return Desc, true
	}
	return "", false
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

func (q Query) WithSort(sortBy string, order Order) Query {
	q.SortBy = sortBy
	q.OrderBy = order
	return q
}

func (q Query) WithPageSize(size int) Query {
	q.PageSize = size
	return q
}

// Encode serializes the query for the address bar. The parameter order is
// fixed (page, pageOffset, sortBy, orderBy) so that equal queries always
// produce equal URLs.
func (q Query) Encode() string {
	var b strings.Builder
	pairs := [][2]string{
		{ParamPage, strconv.Itoa(q.Page)},
		{ParamPageSize, strconv.Itoa(q.PageSize)},
		{ParamSortBy, q.SortBy},
		{ParamOrderBy, string(q.OrderBy)},
	}
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p[0]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}
