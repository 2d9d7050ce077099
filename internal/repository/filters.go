package repository

import (
	"fmt"
	"strings"
)

// clauseBuilder accumulates WHERE conditions with positional placeholders.
// Conditions added via add get the next $n appended to the operator prefix;
// addRaw takes a fully formed fragment (for IN lists and the like).
type clauseBuilder struct {
	clauses []string
	args    []any
}

func newClauseBuilder() *clauseBuilder {
	return &clauseBuilder{clauses: []string{"1=1"}}
}

func (b *clauseBuilder) add(prefix string, arg any) {
	b.args = append(b.args, arg)
	b.clauses = append(b.clauses, fmt.Sprintf("%s$%d", prefix, len(b.args)))
}

func (b *clauseBuilder) addRaw(clause string) {
	b.clauses = append(b.clauses, clause)
}

// placeholder pushes arg and returns its $n token.
func (b *clauseBuilder) placeholder(arg any) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *clauseBuilder) build(base, orderBy string, limit, offset int) string {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf("%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		base, strings.Join(b.clauses, " AND "), orderBy, limit, offset)
}
