package console

import (
	"github.com/parisxmas/OxiDB/OxiWL/internal/form"
	"github.com/parisxmas/OxiDB/OxiWL/internal/models"
	"github.com/parisxmas/OxiDB/OxiWL/internal/notify"
	"github.com/parisxmas/OxiDB/OxiWL/internal/pager"
)

type FieldView struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Touched bool   `json:"touched"`
	Valid   bool   `json:"valid"`
	// Error is the helper text, present only once the field was edited
	// into an invalid value.
	Error string `json:"error,omitempty"`
}

type FormView struct {
	Fields      []FieldView `json:"fields"`
	Submittable bool        `json:"submittable"`
}

// formView renders f. Values of the secret fields are never echoed.
func formView(f form.Form, secret ...string) FormView {
	hidden := make(map[string]bool, len(secret))
	for _, name := range secret {
		hidden[name] = true
	}
	v := FormView{Fields: make([]FieldView, 0, f.Len()), Submittable: f.Submittable()}
	for _, fs := range f.Fields() {
		fv := FieldView{Name: fs.Name, Label: fs.Label, Value: fs.Value, Touched: fs.Touched, Valid: fs.IsValid}
		if hidden[fs.Name] {
			fv.Value = ""
		}
		if fs.ShowError() {
			fv.Error = fs.HelperText
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}

// ListView is the table and pagination bar of a list page.
type ListView[T any] struct {
	State       pager.State `json:"state"`
	Loading     bool        `json:"loading"`
	Query       pager.Query `json:"query"`
	Items       []T         `json:"items"`
	From        int         `json:"from"`
	To          int         `json:"to"`
	Total       int         `json:"total"`
	CurrentPage int         `json:"currentPage"`
	PerPage     int         `json:"perPage"`
	LastPage    int         `json:"lastPage"`
	// Pages lists the page links to show; it is empty when there are no
	// items, which hides the pagination bar.
	Pages []int  `json:"pages"`
	Error string `json:"error,omitempty"`
}

func listView[T any](v pager.View[T], pageLimit int) ListView[T] {
	lv := ListView[T]{
		State:       v.State,
		Loading:     v.Loading,
		Query:       v.Query,
		Items:       v.Result.Items,
		From:        v.Result.From,
		To:          v.Result.To,
		Total:       v.Result.Total,
		CurrentPage: v.Result.CurrentPage,
		PerPage:     v.Result.PerPage,
		LastPage:    v.Result.LastPage,
		Pages:       []int{},
		Error:       v.Error,
	}
	if !v.Result.Empty() {
		lv.Pages = v.Result.Pages(pageLimit)
	}
	return lv
}

type LoginView struct {
	Form   FormView       `json:"form"`
	Toasts []notify.Toast `json:"toasts"`
}

type DashboardView struct {
	Location string                   `json:"location"`
	User     models.UserResponse      `json:"user"`
	Form     FormView                 `json:"form"`
	Editing  string                   `json:"editing,omitempty"`
	List     ListView[models.IPEntry] `json:"list"`
	Toasts   []notify.Toast           `json:"toasts"`
}

type AuditLogView struct {
	Location string                      `json:"location"`
	User     models.UserResponse         `json:"user"`
	List     ListView[models.AuditEntry] `json:"list"`
	Toasts   []notify.Toast              `json:"toasts"`
}
