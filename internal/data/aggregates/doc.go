// Package aggregates implements the domain aggregate contracts on top of the
// table-level repos in internal/data/repos. Every write runs inside one
// transaction owned by the aggregate.
package aggregates
