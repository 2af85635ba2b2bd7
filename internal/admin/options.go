package admin

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"gorm.io/gorm"
)

type FieldKind int

const (
	KindText FieldKind = iota
	KindTextArea
	KindSelect
	KindCheckbox
)

type Choice struct {
	Value string
	Label string
}

// Column is one cell of the change list.
type Column[T any] struct {
	Header string
	Value  func(*T) any
}

// SearchField matches q against Column of the model's table, or, when Via is
// set, against Column of Table joined through the foreign key Via -> Key.
type SearchField struct {
	Column string
	Via    string
	Table  string
	Key    string
}

// DateFilter narrows the change list by a timestamp column.
type DateFilter struct {
	Column string
	Label  string
}

// Field is an editable form input bound to a model attribute.
type Field[T any] struct {
	Name      string
	Label     string
	Kind      FieldKind
	Required  bool
	MaxLength int
	// Column is the database column written on update.
	Column  string
	Choices func(db *gorm.DB) ([]Choice, error)
	Get     func(*T) string
	Set     func(*T, string) error
}

// ModelAdmin is the declarative configuration of one model's screens.
type ModelAdmin[T any] struct {
	Name    string
	Verbose string

	ListDisplay       []Column[T]
	SearchFields      []SearchField
	ListFilter        []DateFilter
	EmptyValueDisplay string
	Order             string
	Preload           []string

	Fields []Field[T]
	// Prepopulated fills a blank field from another one, target -> source.
	Prepopulated map[string]string

	PK func(*T) uint

	// AfterSave and AfterDelete run once the row change is committed.
	AfterSave   func(before T, after *T)
	AfterDelete func(*T)
}

// displayValue renders a cell, falling back to empty for blank values.
func displayValue(v any, empty string) string {
	if v == nil {
		return empty
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return empty
		}
		v = rv.Elem().Interface()
	}

	var s string
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return empty
		}
		s = x.Format("02.01.2006 15:04")
	case fmt.Stringer:
		s = x.String()
	case string:
		s = x
	default:
		s = fmt.Sprint(x)
	}
	if s == "" {
		return empty
	}
	return s
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

func formatID(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}
