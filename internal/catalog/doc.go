// Package catalog holds the normalized in-memory model of one or more sound
// catalog sources: sections of clips with known durations. The catalog is
// read-only after Load.
package catalog
