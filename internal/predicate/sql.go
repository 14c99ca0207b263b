package predicate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Columns maps clause fields onto qualified SQL column expressions.
type Columns struct {
	Status      string
	Category    string
	Subcategory string
	Rating      string
	Price       string
	Stock       string
}

// SQL is a rendered predicate. Where holds only $N placeholders; values live
// in Args. Residual holds the clauses that must be evaluated in memory
// because they compare normalized values.
type SQL struct {
	Where    string
	Args     []interface{}
	Residual Predicate
}

// HasResidual reports whether some clauses could not be pushed down.
func (s SQL) HasResidual() bool { return len(s.Residual.clauses) > 0 }

type whereBuilder struct {
	cols    Columns
	clauses []string
	args    []interface{}
	argID   int
}

func (b *whereBuilder) add(format string, args ...interface{}) {
	placeholders := make([]interface{}, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", b.argID)
		b.argID++
	}
	b.clauses = append(b.clauses, fmt.Sprintf(format, placeholders...))
	b.args = append(b.args, args...)
}

type sqlClause interface {
	writeSQL(b *whereBuilder)
}

// ToSQL renders the pushable clauses of p. Placeholders start at $firstArg.
// An empty predicate renders "TRUE".
func (p Predicate) ToSQL(cols Columns, firstArg int) SQL {
	b := &whereBuilder{cols: cols, argID: firstArg}
	var residual Predicate
	for _, c := range p.clauses {
		if sc, ok := c.(sqlClause); ok {
			sc.writeSQL(b)
			continue
		}
		residual = residual.And(c)
	}

	where := "TRUE"
	if len(b.clauses) > 0 {
		where = strings.Join(b.clauses, " AND ")
	}
	return SQL{Where: where, Args: b.args, Residual: residual}
}

func (c StatusIs) writeSQL(b *whereBuilder) {
	b.add(b.cols.Status+" = %s", c.Status)
}

func (c CategoryIs) writeSQL(b *whereBuilder) {
	b.add(b.cols.Category+" = %s", c.Slug)
}

func (c SubcategoryIs) writeSQL(b *whereBuilder) {
	b.add(b.cols.Subcategory+" = %s", c.Slug)
}

func (c RatingIn) writeSQL(b *whereBuilder) {
	buckets := make([]int64, 0, len(c.Buckets))
	for bucket := range c.Buckets {
		buckets = append(buckets, int64(bucket))
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })
	b.add("FLOOR("+b.cols.Rating+")::int = ANY(%s)", pq.Array(buckets))
}

func (c PriceBetween) writeSQL(b *whereBuilder) {
	b.add(b.cols.Price+" >= %s AND "+b.cols.Price+" <= %s", c.Min, c.Max)
}

func (InStock) writeSQL(b *whereBuilder) {
	b.clauses = append(b.clauses, b.cols.Stock+" > 0")
}
