package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// conditions accumulates numbered WHERE clauses and their arguments
type conditions struct {
	clauses []string
	args    []any
}

// add appends a clause whose single placeholder is written as $%d
func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

// raw appends a clause without arguments
func (c *conditions) raw(clause string) {
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page returns LIMIT/OFFSET placeholders and the arguments to go with them
func (c *conditions) page(p pagination.Params) (string, []any) {
	n := len(c.args)
	args := append(append([]any{}, c.args...), p.Limit(), p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

// notFound maps pgx.ErrNoRows to a not found error for resource
func notFound(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound(resource)
	}
	return err
}

// conflict maps unique violations to a conflict error
func conflict(err error, message string) error {
	if database.IsUniqueViolation(err) {
		return apperrors.Conflict(message)
	}
	return err
}
