// Package models defines the core domain records for Splitledger.
//
// # Records
//
//   - Currency: reference data, including the minor-unit exponent used for
//     all monetary arithmetic
//   - User: a registered account; the ledger engine only reads its ID
//   - Group: a named set of users that can own expenses
//   - Expense: a paid amount in one currency, split among participants
//   - ExpenseParticipant: one participant's exact minor-unit share of an
//     expense, plus its settlement state
//   - ConversionRate: an append-only, timestamped exchange rate row
//   - Transaction: the immutable result of settling a batch of shares
//
// # Design Principles
//
//  1. All monetary amounts are minor-unit int64 values; fractional values
//     (conversion rates) use shopspring decimals. Floats never appear.
//  2. Relationships are ID strings, never pointers, to avoid circular
//     object graphs.
//  3. Optional references use the empty string; a participant's settlement
//     fields are either all set or all zero, never partially populated.
package models
