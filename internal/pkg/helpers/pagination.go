// Package helpers holds small request helpers shared by controllers and services.
package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oaustech/docportal/internal/app/models/dto"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps a 1-based page and its size into the accepted range.
func NormalizePage(page, size int) (int, int) {
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return max(page, 1), size
}

// NewPaginationInfo describes one page of totalItems; a page past the end reports the last page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	page, size = NormalizePage(page, size)
	pages := max(int((totalItems+int64(size)-1)/int64(size)), 1)
	return dto.PaginationInfo{
		CurrentPage: min(page, pages),
		TotalPages:  pages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// CalculateSliceIndices bounds the [start, end) window of a page over an in-memory list of n items.
func CalculateSliceIndices(page, size, n int) (start, end int) {
	page, size = NormalizePage(page, size)
	// pages past the end would overflow (page-1)*size
	if page-1 > n/size {
		return n, n
	}
	start = min((page-1)*size, n)
	return start, min(start+size, n)
}

// ParseIDParam reads a positive integer path parameter.
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
