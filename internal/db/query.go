package db

import "strings"

// Query assembles a parameterized statement from a fixed head, a list of
// AND-ed predicates, an optional ORDER BY and an optional LIMIT. Values are
// always passed as arguments; only column expressions chosen by the caller are
// spliced into the SQL text.
type Query struct {
	head    string
	headArg []any
	preds   []string
	args    []any
	orderBy string
	limit   int
}

// NewQuery starts a query from its SELECT/DELETE head.
func NewQuery(head string, args ...any) *Query {
	return &Query{head: head, headArg: args}
}

// Where adds a predicate. Its placeholders consume args in order.
func (q *Query) Where(pred string, args ...any) *Query {
	q.preds = append(q.preds, pred)
	q.args = append(q.args, args...)
	return q
}

// WhereIn adds "column IN (?, ...)". An empty list matches nothing.
func (q *Query) WhereIn(column string, ids []int64) *Query {
	if len(ids) == 0 {
		return q.Where("1 = 0")
	}
	marks := strings.Repeat("?, ", len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return q.Where(column+" IN ("+marks[:len(marks)-2]+")", args...)
}

// OrderBy sets the ORDER BY expression.
func (q *Query) OrderBy(expr string) *Query {
	q.orderBy = expr
	return q
}

// Limit caps the number of rows; zero or less means no limit.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Build returns the SQL text and its arguments.
func (q *Query) Build() (string, []any) {
	var b strings.Builder
	b.WriteString(q.head)

	args := make([]any, 0, len(q.headArg)+len(q.args)+1)
	args = append(args, q.headArg...)

	if len(q.preds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.preds, " AND "))
		args = append(args, q.args...)
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.orderBy)
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.limit)
	}
	return b.String(), args
}
