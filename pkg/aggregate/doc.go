// Package aggregate reduces one scan's findings against a compliance
// catalog into framework overviews, requirement overviews and export rows.
//
// Requirement status is derived after the whole batch is consumed:
//
//   - MANUAL when the requirement has no checks
//   - FAIL when any unmuted failing finding maps to it
//   - PASS when any passing finding maps to it
//   - MANUAL otherwise (not assessed)
//
// Muted failures never fail a requirement, but their export rows keep
// the original status and the Muted flag.
package aggregate
