// Package ir provides the value and record types shared by the metacat
// compiler, adapters and store.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - literal decimals stay as strings
//   - All JSON tags use snake_case
//   - Canonical JSON (RFC 8785) is the only encoding used for fingerprints
package ir
