package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/noah-isme/skillhub-api/internal/models"
)

func limitOffset(page, pageSize int) (int, int) {
	page, pageSize = models.NormalizePage(page, pageSize)
	return pageSize, (page - 1) * pageSize
}

// conditions accumulates WHERE clauses with positional placeholders.
type conditions struct {
	clauses []string
	args    []interface{}
}

// add appends a clause. Each "?" in clause is replaced by the next placeholder.
func (c *conditions) add(clause string, args ...interface{}) {
	for _, arg := range args {
		c.args = append(c.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(c.args)), 1)
	}
	c.clauses = append(c.clauses, clause)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// ErrDuplicate is returned when an insert or update hits a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
