// Package run coordinates station composition across all banks: selection,
// assembly, outcome tracking and the final summary.
package run
