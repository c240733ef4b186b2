package ecs

import "slices"

// Query is the set of components a system requires. Queries built from the
// same components in any order are equal.
type Query struct {
	components componentSet
}

// Components returns a copy of the required component ids in ascending order.
func (q Query) Components() []ComponentId {
	return slices.Clone(q.components)
}

// Equal reports whether both queries require the same components.
func (q Query) Equal(o Query) bool {
	return q.components.equal(o.components)
}

// Matches reports whether entities of archetype a satisfy the query.
func (q Query) Matches(a Archetype) bool {
	return a.components.supersetOf(q.components)
}

// QueryBuilder accumulates required components.
type QueryBuilder struct {
	components componentSet
}

// NewQueryBuilder returns an empty builder.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// With inserts c at its sorted position. Adding the same component twice has
// no effect.
func (b *QueryBuilder) With(c ComponentId) *QueryBuilder {
	b.components, _ = b.components.insert(c)
	return b
}

// Build returns the query. The builder may keep being used afterwards.
func (b *QueryBuilder) Build() Query {
	return Query{components: slices.Clone(b.components)}
}
