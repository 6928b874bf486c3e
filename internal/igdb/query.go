// Catalogsync - Game Catalog Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogsync

/*
query.go - Apicalypse Query Builder

Queries are sent as the raw request body. The API wants one line where every
clause ends with ';' and no whitespace separates clauses:

	search "zelda";fields name,cover.image_id;where cover != null;limit 20;
	fields name;where cover != null & total_rating >= 60;sort total_rating desc;limit 50;offset 100;

Clause order is fixed: search, fields, where, sort, limit, offset.
Filters are conjoined with '&'. A search and a sort cannot share one query.
*/

//nolint:staticcheck // File documentation, not package doc
package igdb

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxLimit is the largest page size the API accepts.
const MaxLimit = 500

// SortOrder is a sort direction.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Operator is a comparison operator.
type Operator string

// Comparison operators.
const (
	Eq    Operator = "="
	NotEq Operator = "!="
	Gt    Operator = ">"
	Gte   Operator = ">="
	Lt    Operator = "<"
	Lte   Operator = "<="
)

// Filter is one conjunct of a where clause.
type Filter interface {
	clause() (string, error)
}

type nullFilter struct {
	field string
	null  bool
}

func (f nullFilter) clause() (string, error) {
	if f.null {
		return f.field + " = null", nil
	}
	return f.field + " != null", nil
}

type compareFilter struct {
	field string
	op    Operator
	value interface{}
}

func (f compareFilter) clause() (string, error) {
	v, err := formatValue(f.value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", f.field, f.op, v), nil
}

type inFilter struct {
	field  string
	values []interface{}
}

func (f inFilter) clause() (string, error) {
	if len(f.values) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptySet, f.field)
	}
	parts := make([]string, len(f.values))
	for i, v := range f.values {
		s, err := formatValue(v)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return fmt.Sprintf("%s = (%s)", f.field, strings.Join(parts, ",")), nil
}

// NotNull matches records where field is present.
func NotNull(field string) Filter { return nullFilter{field: field} }

// IsNull matches records where field is absent.
func IsNull(field string) Filter { return nullFilter{field: field, null: true} }

// Compare matches records where field op value holds.
func Compare(field string, op Operator, value interface{}) Filter {
	return compareFilter{field: field, op: op, value: value}
}

// In matches records where field equals any of values.
func In(field string, values ...interface{}) Filter {
	return inFilter{field: field, values: values}
}

func formatValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case string:
		return quote(val), nil
	default:
		return "", fmt.Errorf("igdb: unsupported filter value type %T", v)
	}
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteEscaper.Replace(s) + `"`
}

// Query builds one Apicalypse query. The zero value is not usable; call NewQuery.
type Query struct {
	fields    []string
	filters   []Filter
	search    string
	hasSearch bool
	sortField string
	sortOrder SortOrder
	limit     int
	offset    int
}

// NewQuery starts an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Fields appends to the field list. An empty list builds as "fields *".
func (q *Query) Fields(fields ...string) *Query {
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			q.fields = append(q.fields, f)
		}
	}
	return q
}

// Where adds filters, conjoined with any already present.
func (q *Query) Where(filters ...Filter) *Query {
	q.filters = append(q.filters, filters...)
	return q
}

// Search sets the free-text search term.
func (q *Query) Search(term string) *Query {
	q.search = term
	q.hasSearch = true
	return q
}

// Sort sets the sort field and direction.
func (q *Query) Sort(field string, order SortOrder) *Query {
	q.sortField = field
	q.sortOrder = order
	return q
}

// Limit sets the page size; values above MaxLimit are capped.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Offset sets the number of records to skip; zero omits the clause.
func (q *Query) Offset(n int) *Query {
	q.offset = n
	return q
}

// Build renders the canonical query string.
func (q *Query) Build() (string, error) {
	if q.hasSearch && q.sortField != "" {
		return "", ErrSearchWithSort
	}

	var b strings.Builder

	if q.hasSearch {
		b.WriteString("search ")
		b.WriteString(quote(q.search))
		b.WriteByte(';')
	}

	b.WriteString("fields ")
	if len(q.fields) == 0 {
		b.WriteByte('*')
	} else {
		b.WriteString(strings.Join(q.fields, ","))
	}
	b.WriteByte(';')

	if len(q.filters) > 0 {
		clauses := make([]string, len(q.filters))
		for i, f := range q.filters {
			c, err := f.clause()
			if err != nil {
				return "", err
			}
			clauses[i] = c
		}
		b.WriteString("where ")
		b.WriteString(strings.Join(clauses, " & "))
		b.WriteByte(';')
	}

	if q.sortField != "" {
		order := q.sortOrder
		if order == "" {
			order = Asc
		}
		fmt.Fprintf(&b, "sort %s %s;", q.sortField, order)
	}

	if q.limit > 0 {
		fmt.Fprintf(&b, "limit %d;", min(q.limit, MaxLimit))
	}

	if q.offset > 0 {
		fmt.Fprintf(&b, "offset %d;", q.offset)
	}

	return Normalize(b.String()), nil
}

// Normalize canonicalizes query text: whitespace runs (including line breaks)
// become one space, whitespace around ';' outside quoted strings is removed,
// and the result is trimmed.
func Normalize(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	var (
		inQuote bool
		escaped bool
		pending bool
		last    rune
	)
	for _, r := range query {
		if unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending {
			if b.Len() > 0 && (inQuote || (r != ';' && last != ';')) {
				b.WriteByte(' ')
			}
			pending = false
		}

		b.WriteRune(r)
		last = r

		switch {
		case escaped:
			escaped = false
		case r == '\\' && inQuote:
			escaped = true
		case r == '"':
			inQuote = !inQuote
		}
	}
	return b.String()
}
