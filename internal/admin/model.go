package admin

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"yatube/internal/store"
)

const RowsPerPage = 25

var errNotFound = errors.New("admin: object not found")

// likeEscaper makes % and _ in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// modelSite is the type-erased view of a ModelAdmin the site dispatches to.
type modelSite interface {
	meta() modelMeta
	list(db *gorm.DB, query url.Values, now time.Time) (*listView, error)
	blankForm(db *gorm.DB) (*formView, error)
	changeForm(db *gorm.DB, id uint) (*formView, error)
	save(db *gorm.DB, id uint, values url.Values) (*formView, bool, error)
	object(db *gorm.DB, id uint) (string, error)
	remove(db *gorm.DB, id uint) error
}

type modelMeta struct {
	Name    string
	Verbose string
}

type listRow struct {
	ID    uint
	Cells []string
}

type filterOption struct {
	Label    string
	Query    template.URL
	Selected bool
}

type filterView struct {
	Label   string
	Options []filterOption
}

type listView struct {
	Model   modelMeta
	Headers []string
	Rows    []listRow
	Query   string
	Search  bool
	Filters []filterView
	Page    *store.Page[listRow]
	// Params keeps search and filters when paging.
	Params template.URL
}

type fieldView struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Value    string
	Choices  []Choice
	Error    string
}

func (f fieldView) IsTextArea() bool { return f.Kind == KindTextArea }
func (f fieldView) IsSelect() bool   { return f.Kind == KindSelect }
func (f fieldView) IsCheckbox() bool { return f.Kind == KindCheckbox }

type formView struct {
	Model  modelMeta
	ID     uint
	Fields []fieldView
	Error  string
}

func (m *ModelAdmin[T]) meta() modelMeta {
	return modelMeta{Name: m.Name, Verbose: m.Verbose}
}

func (m *ModelAdmin[T]) empty() string {
	if m.EmptyValueDisplay == "" {
		return "-empty-"
	}
	return m.EmptyValueDisplay
}

func (m *ModelAdmin[T]) loadScope(db *gorm.DB) *gorm.DB {
	for _, p := range m.Preload {
		db = db.Preload(p)
	}
	if m.Order != "" {
		db = db.Order(m.Order)
	}
	return db
}

func (m *ModelAdmin[T]) list(db *gorm.DB, query url.Values, now time.Time) (*listView, error) {
	q := db.Model(new(T))
	params := url.Values{}

	term := strings.TrimSpace(query.Get("q"))
	if term != "" && len(m.SearchFields) > 0 {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		parts := make([]string, 0, len(m.SearchFields))
		args := make([]any, 0, len(m.SearchFields))
		for _, sf := range m.SearchFields {
			if sf.Via == "" {
				parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, sf.Column))
			} else {
				parts = append(parts, fmt.Sprintf(`%s IN (SELECT %s FROM %s WHERE LOWER(%s) LIKE ? ESCAPE '\')`,
					sf.Via, sf.Key, sf.Table, sf.Column))
			}
			args = append(args, like)
		}
		q = q.Where("("+strings.Join(parts, " OR ")+")", args...)
		params.Set("q", term)
	}

	filters := make([]filterView, 0, len(m.ListFilter))
	for _, f := range m.ListFilter {
		selected := query.Get(f.Column)
		if since, ok := dateSince(selected, now); ok {
			q = q.Where(f.Column+" >= ?", since)
			params.Set(f.Column, selected)
		} else {
			selected = ""
		}
		filters = append(filters, filterView{Label: f.Label, Options: dateOptions(f.Column, selected)})
	}

	page, err := store.Paginate[T](q, query.Get("page"), RowsPerPage, m.loadScope)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.Name, err)
	}

	view := &listView{
		Model:   m.meta(),
		Query:   term,
		Search:  len(m.SearchFields) > 0,
		Filters: filters,
		Params:  template.URL(params.Encode()),
		Page: &store.Page[listRow]{
			Number:   page.Number,
			NumPages: page.NumPages,
			Count:    page.Count,
		},
	}
	for _, c := range m.ListDisplay {
		view.Headers = append(view.Headers, c.Header)
	}
	for i := range page.Items {
		item := &page.Items[i]
		row := listRow{ID: m.PK(item)}
		for _, c := range m.ListDisplay {
			row.Cells = append(row.Cells, displayValue(c.Value(item), m.empty()))
		}
		view.Rows = append(view.Rows, row)
	}
	view.Page.Items = view.Rows
	return view, nil
}

func (m *ModelAdmin[T]) find(db *gorm.DB, id uint) (*T, error) {
	obj := new(T)
	err := m.loadScope(db).First(obj, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", m.Name, id, err)
	}
	return obj, nil
}

func (m *ModelAdmin[T]) form(db *gorm.DB, id uint, value func(f Field[T]) string) (*formView, error) {
	view := &formView{Model: m.meta(), ID: id}
	for _, f := range m.Fields {
		fv := fieldView{
			Name:     f.Name,
			Label:    f.Label,
			Kind:     f.Kind,
			Required: f.Required,
			Value:    value(f),
		}
		if f.Choices != nil {
			choices, err := f.Choices(db)
			if err != nil {
				return nil, fmt.Errorf("choices for %s.%s: %w", m.Name, f.Name, err)
			}
			fv.Choices = choices
		}
		view.Fields = append(view.Fields, fv)
	}
	return view, nil
}

func (m *ModelAdmin[T]) blankForm(db *gorm.DB) (*formView, error) {
	return m.form(db, 0, func(Field[T]) string { return "" })
}

func (m *ModelAdmin[T]) changeForm(db *gorm.DB, id uint) (*formView, error) {
	obj, err := m.find(db, id)
	if err != nil {
		return nil, err
	}
	return m.form(db, id, func(f Field[T]) string { return f.Get(obj) })
}

// save validates values and creates (id == 0) or updates the object. The
// returned form is non-nil when it has to be shown again with errors.
func (m *ModelAdmin[T]) save(db *gorm.DB, id uint, values url.Values) (*formView, bool, error) {
	obj := new(T)
	if id != 0 {
		var err error
		if obj, err = m.find(db, id); err != nil {
			return nil, false, err
		}
	}
	before := *obj

	raw := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		raw[f.Name] = strings.TrimSpace(values.Get(f.Name))
	}
	for target, source := range m.Prepopulated {
		if raw[target] == "" && raw[source] != "" {
			raw[target] = slug.Make(raw[source])
		}
	}

	view, err := m.form(db, id, func(f Field[T]) string { return raw[f.Name] })
	if err != nil {
		return nil, false, err
	}

	valid := true
	columns := make([]string, 0, len(m.Fields))
	for i, f := range m.Fields {
		msg := validateField(f.Required, f.MaxLength, view.Fields[i].Choices, f.Kind, raw[f.Name])
		if msg == "" {
			if err := f.Set(obj, raw[f.Name]); err != nil {
				msg = err.Error()
			}
		}
		if msg != "" {
			view.Fields[i].Error = msg
			valid = false
			continue
		}
		columns = append(columns, f.Column)
	}
	if !valid {
		return view, false, nil
	}

	if id == 0 {
		err = db.Omit(clause.Associations).Create(obj).Error
	} else {
		err = db.Model(obj).Select(columns).Omit(clause.Associations).Updates(obj).Error
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		view.Error = fmt.Sprintf("%s with these values already exists or references a missing object.", m.Verbose)
		return view, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("save %s: %w", m.Name, err)
	}
	if m.AfterSave != nil {
		m.AfterSave(before, obj)
	}
	return nil, true, nil
}

func (m *ModelAdmin[T]) object(db *gorm.DB, id uint) (string, error) {
	obj, err := m.find(db, id)
	if err != nil {
		return "", err
	}
	return displayValue(obj, fmt.Sprintf("%s %d", m.Verbose, id)), nil
}

func (m *ModelAdmin[T]) remove(db *gorm.DB, id uint) error {
	obj, err := m.find(db, id)
	if err != nil {
		return err
	}
	res := db.Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s %d: %w", m.Name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	if m.AfterDelete != nil {
		m.AfterDelete(obj)
	}
	return nil
}

func validateField(required bool, maxLength int, choices []Choice, kind FieldKind, value string) string {
	if value == "" {
		if required {
			return "This field is required."
		}
		return ""
	}
	if n := len([]rune(value)); maxLength > 0 && n > maxLength {
		return fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", maxLength, n)
	}
	if kind == KindSelect {
		for _, c := range choices {
			if c.Value == value {
				return ""
			}
		}
		return "Select a valid choice. That choice is not one of the available choices."
	}
	return ""
}

// dateSince maps a date filter value to the lower bound it selects.
func dateSince(value string, now time.Time) (time.Time, bool) {
	y, mo, d := now.Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	switch value {
	case "today":
		return today, true
	case "past_7_days":
		return today.AddDate(0, 0, -7), true
	case "this_month":
		return time.Date(y, mo, 1, 0, 0, 0, 0, now.Location()), true
	case "this_year":
		return time.Date(y, time.January, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

var dateChoices = []Choice{
	{"", "Any date"},
	{"today", "Today"},
	{"past_7_days", "Past 7 days"},
	{"this_month", "This month"},
	{"this_year", "This year"},
}

func dateOptions(column, selected string) []filterOption {
	opts := make([]filterOption, 0, len(dateChoices))
	for _, c := range dateChoices {
		var q template.URL
		if c.Value != "" {
			q = template.URL(url.Values{column: {c.Value}}.Encode())
		}
		opts = append(opts, filterOption{Label: c.Label, Query: q, Selected: c.Value == selected})
	}
	return opts
}

func statusFor(err error) int {
	if errors.Is(err, errNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
