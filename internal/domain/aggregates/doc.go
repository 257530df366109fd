// Package aggregates defines the write boundaries of the enrollment domain.
//
// Contracts here carry no persistence details; implementations live in
// internal/data/aggregates and own their transactions.
package aggregates
