// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts here name the write boundaries where form-graph and entry invariants
// must hold atomically; persistence lives in internal/data/aggregates.
package aggregates
