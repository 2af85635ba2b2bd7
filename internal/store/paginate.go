package store

import (
	"strconv"

	"gorm.io/gorm"
)

const PostsPerPage = 8

type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
}

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page[T]) HasOtherPages() bool {
	return p.HasPrevious() || p.HasNext()
}
func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }
func (p *Page[T]) NextNumber() int     { return p.Number + 1 }

func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// PageNumber resolves a raw page parameter leniently: anything that is not
// an integer is page 1, anything out of range is the last page.
func PageNumber(raw string, numPages int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// Paginate counts the rows matched by q and loads the requested page.
// Scopes are only applied to the page load, so preloads and ordering do not
// take part in the count.
func Paginate[T any](q *gorm.DB, raw string, perPage int, scopes ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	base := q.Session(&gorm.Session{})

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, err
	}

	numPages := int((count + int64(perPage) - 1) / int64(perPage))
	if numPages == 0 {
		numPages = 1
	}

	page := &Page[T]{
		Number:   PageNumber(raw, numPages),
		NumPages: numPages,
		Count:    count,
	}

	err := base.Scopes(scopes...).
		Offset((page.Number - 1) * perPage).
		Limit(perPage).
		Find(&page.Items).Error
	if err != nil {
		return nil, err
	}
	return page, nil
}
