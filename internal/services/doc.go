// Package services holds the error taxonomy shared by collaborator clients
// and the run coordinator.
package services
