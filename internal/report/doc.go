// Package report persists per-run station outcomes so a finished fill can be
// inspected after the fact.
package report
