package repository

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// updateBuilder assembles a dynamic partial UPDATE: only the columns that
// were explicitly set appear in the statement, and updated_at is always
// bumped alongside them.
type updateBuilder struct {
	table   string
	columns []string
	args    []interface{}
}

func newUpdateBuilder(table string) *updateBuilder {
	return &updateBuilder{table: table}
}

// Set adds a column assignment.
func (b *updateBuilder) Set(column string, value interface{}) *updateBuilder {
	b.columns = append(b.columns, fmt.Sprintf("%s = ?", column))
	b.args = append(b.args, value)
	return b
}

// Empty reports whether no assignments were added.
func (b *updateBuilder) Empty() bool {
	return len(b.columns) == 0
}

// Build returns the UPDATE statement keyed on idColumn and its full argument
// list, with updated_at appended to the SET clause.
func (b *updateBuilder) Build(idColumn string, id interface{}) (string, []interface{}) {
	columns := append(b.columns, "updated_at = CURRENT_TIMESTAMP")
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ?",
		b.table,
		strings.Join(columns, ", "),
		idColumn,
	)
	args := append(b.args, id)

	log.Debug().
		Str("query", query).
		Str("table", b.table).
		Msg("Built partial update")

	return query, args
}

// prefixColumns qualifies a comma-separated column list with a table alias,
// for queries that join against another table.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
