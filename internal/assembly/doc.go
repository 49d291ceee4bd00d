// Package assembly materializes a station's chosen clip sequence into one
// audio file at its bank/station path, driving the encoder collaborator.
package assembly
