package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumPagesFor(t *testing.T) {
	assert.Equal(t, 1, NumPagesFor(0, 10))
	assert.Equal(t, 1, NumPagesFor(10, 10))
	assert.Equal(t, 2, NumPagesFor(11, 10))
	assert.Equal(t, 3, NumPagesFor(25, 0), "falls back to the default page size")
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 1, ClampPage(-4, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 3, ClampPage(99, 3))
}

func TestPageNavigation(t *testing.T) {
	p := &Page[int]{Number: 2, PageSize: 10, NumPages: 3}
	assert.Equal(t, 10, p.Offset())
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.PreviousNumber())
	assert.Equal(t, 3, p.NextNumber())

	p.Number = 3
	assert.False(t, p.HasNext())
}
