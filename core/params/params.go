package params

import (
	"strconv"

	"go-event-roster/core/constants"

	"github.com/labstack/echo/v4"
)

// Actor is the web operator performing a request.
type Actor struct {
	ID      string
	Name    string
	Manager bool
}

// CanManage reports whether the actor may edit or delete something owned by creatorID.
func (a Actor) CanManage(creatorID string) bool {
	return a.Manager || (a.ID != "" && a.ID == creatorID)
}

type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PaginationFromQuery reads ?page= and ?page_size=, clamping to sane bounds.
func PaginationFromQuery(c echo.Context) Pagination {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = constants.DefaultPageSize
	}
	return Pagination{Page: page, PageSize: size}
}

// BoolQuery parses a boolean query parameter, returning def when absent or malformed.
func BoolQuery(c echo.Context, name string, def bool) bool {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
