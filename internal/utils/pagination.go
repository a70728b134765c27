package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamtodo/teamtodo-api/internal/constants"
)

// PaginationParams is a validated page request.
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset converts the one-based page into a row offset.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PaginationResponse is the page metadata echoed alongside list results.
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetPaginationParams reads page/limit from the query string, clamping
// out-of-range or unparseable values to the defaults.
func GetPaginationParams(c *gin.Context) PaginationParams {
	params := PaginationParams{
		Page:  constants.MinPageSize,
		Limit: constants.DefaultPageSize,
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= constants.MinPageSize {
		params.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil &&
		limit >= constants.MinPageSize && limit <= constants.MaxPageSize {
		params.Limit = limit
	}

	return params
}
