// Package sox wraps the sox command-line tool used to convert clips into the
// Radio Music sample format and splice them into station programs.
package sox
