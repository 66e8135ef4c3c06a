package helpers

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(37, 2, 10)
	assert.Equal(t, 4, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(37), info.TotalItems)

	empty := NewPaginationInfo(0, 5, 10)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 1, empty.CurrentPage)

	clamped := NewPaginationInfo(5, 0, 1000)
	assert.Equal(t, DefaultPageSize, clamped.PageSize)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestCalculateSliceIndices(t *testing.T) {
	start, end := CalculateSliceIndices(2, 10, 15)
	assert.Equal(t, 10, start)
	assert.Equal(t, 15, end)

	start, end = CalculateSliceIndices(4, 10, 15)
	assert.Equal(t, 15, start)
	assert.Equal(t, 15, end)

	start, end = CalculateSliceIndices(math.MaxInt/20+2, 20, 3)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)

	start, end = CalculateSliceIndices(math.MaxInt, 0, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}, {Key: "neg", Value: "-3"}}

	id, ok := ParseIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = ParseIDParam(c, "neg")
	assert.False(t, ok)
	_, ok = ParseIDParam(c, "missing")
	assert.False(t, ok)
}
