package dto

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cesargomez89/topalbums/internal/constants"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// ParseID reads a positive database id from a path parameter.
func ParseID(field, raw string) (int64, *ValidationError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return id, nil
}

// ParsePage reads page and page_size, falling back to defaults when absent.
func ParsePage(q url.Values) (page, pageSize int, errs []ValidationError) {
	page, pageSize = 1, constants.DefaultPageSize

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, ValidationError{Field: "page", Message: "must be a positive integer"})
		} else {
			page = n
		}
	}

	if raw := q.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil || n < 1:
			errs = append(errs, ValidationError{Field: "page_size", Message: "must be a positive integer"})
		case n > constants.MaxPageSize:
			errs = append(errs, ValidationError{Field: "page_size", Message: fmt.Sprintf("must be at most %d", constants.MaxPageSize)})
		default:
			pageSize = n
		}
	}

	return page, pageSize, errs
}
