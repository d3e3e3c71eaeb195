package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 5, p.Total)

	p = Paginate(items, 3, 2)
	assert.Equal(t, []int{5}, p.Items)

	p = Paginate(items, 9, 2)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)

	p = Paginate[int](nil, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 0, p.TotalPages)
}

func TestPaginate_HugeValuesDoNotOverflow(t *testing.T) {
	items := []int{1, 2, 3}

	assert.NotPanics(t, func() {
		p := Paginate(items, math.MaxInt/5, 10)
		assert.Empty(t, p.Items)
		assert.Equal(t, 1, p.TotalPages)
	})
	assert.NotPanics(t, func() {
		p := Paginate(items, math.MaxInt, math.MaxInt)
		assert.Empty(t, p.Items)
	})
	assert.NotPanics(t, func() {
		p := Paginate(items, 1, math.MaxInt)
		assert.Equal(t, []int{1, 2, 3}, p.Items)
		assert.Equal(t, 1, p.TotalPages)
	})
}
