// Package ir provides the value types exchanged between the query layer and
// execution adapters.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This ensures ir remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Values are a sealed set of scalars (IRNull, IRString, IRInt, IRFloat, IRBool)
//   - Rows are ordered (column, value) pairs; projection order is significant
//   - JSON rendering preserves column order and NFC-normalizes text
package ir
