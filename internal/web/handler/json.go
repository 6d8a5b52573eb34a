package handler

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error responds with a JSON error body and the given status code.
func Error(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// Pagination holds the limit/offset parsed from query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset query parameters, clamping the
// limit between 1 and MaxPageSize.
func ParsePagination(c *fiber.Ctx) Pagination {
	limit := c.QueryInt("limit", DefaultPageSize)
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}
