// Package preflight estimates the storage a fill run needs and checks the
// target filesystem before any audio is produced.
package preflight
