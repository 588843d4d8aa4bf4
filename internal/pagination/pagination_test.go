package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func ctx(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestFromQuery(t *testing.T) {
	tests := []struct {
		target string
		want   Page
	}{
		{"/x", Page{Number: 1, PerPage: 10}},
		{"/x?page=3&per_page=25", Page{Number: 3, PerPage: 25}},
		{"/x?page=0&per_page=-1", Page{Number: 1, PerPage: 10}},
		{"/x?page=abc&per_page=1000", Page{Number: 1, PerPage: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, FromQuery(ctx(tt.target)))
		})
	}
	assert.Equal(t, 50, Page{Number: 6, PerPage: 10}.Offset())
}

func TestNewList(t *testing.T) {
	l := NewList([]string{"a", "b"}, Page{Number: 2, PerPage: 2}, 5)
	assert.Equal(t, Meta{CurrentPage: 2, LastPage: 3, PerPage: 2, Total: 5}, l.Meta)

	empty := NewList[int](nil, Page{Number: 1, PerPage: 10}, 0)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 1, empty.Meta.LastPage)
}
