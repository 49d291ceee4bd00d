// Package dirsource adapts a local directory tree into a catalog source.
// Immediate subdirectories become sections and the audio files beneath them
// become clips, with durations measured through sox.
package dirsource
