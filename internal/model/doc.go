// Package model defines the shared data types of the marketplace ledger.
//
// Conventions:
//   - Amounts and prices: uint64 in the native currency's smallest unit
//   - Royalties: basis points (1/100 of a percent), 0-10,000
//   - Timestamps: int64 microseconds since Unix epoch
//   - Token IDs: uint64, assigned monotonically from 1, never reused
package model
