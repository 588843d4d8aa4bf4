// Package pagination reads page / per_page and builds the list envelope.
package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

type Page struct {
	Number  int
	PerPage int
}

func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

// FromQuery never fails: bad or missing values fall back to the defaults
// and per_page is capped.
func FromQuery(c *gin.Context) Page {
	p := Page{Number: 1, PerPage: DefaultPerPage}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(c.Query("per_page")); err == nil && n > 0 {
		p.PerPage = min(n, MaxPerPage)
	}
	return p
}

type Meta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

type List[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

func NewList[T any](items []T, p Page, total int64) List[T] {
	if items == nil {
		items = []T{}
	}
	last := 1
	if total > 0 {
		last = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return List[T]{
		Data: items,
		Meta: Meta{CurrentPage: p.Number, LastPage: last, PerPage: p.PerPage, Total: total},
	}
}
