// Package pagination разбирает параметры страниц для списков.
package pagination

import "strconv"

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage держит Page*Limit далеко от переполнения int.
	MaxPage = 100000
)

type Params struct {
	Page  int
	Limit int
}

// Parse читает page/limit из строк запроса; мусор заменяется значениями по умолчанию.
func Parse(page, limit string) Params {
	p, _ := strconv.Atoi(page)
	l, _ := strconv.Atoi(limit)
	return Params{Page: p, Limit: l}.Normalize()
}

func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

type Meta struct {
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

func (p Params) Meta(total int64) Meta {
	n := p.Normalize()
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Meta{
		Total:           total,
		Page:            n.Page,
		Limit:           n.Limit,
		TotalPages:      pages,
		HasNextPage:     int64(n.Page*n.Limit) < total,
		HasPreviousPage: n.Page > 1,
	}
}

// Страница результатов со служебной информацией.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Pagination Meta `json:"pagination"`
}
