// Package common provides error-handling utilities shared across the
// fhirpath-go module: a PathError that attaches a FHIRPath-expression
// location to an underlying error, and the sentinel errors compile and
// evaluation failures wrap so callers can errors.Is against them
// regardless of the human-readable message.
package common
