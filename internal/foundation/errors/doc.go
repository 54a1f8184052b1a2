// Package errors provides classified error primitives used across releasebot.
//
// A ClassifiedError carries a category (config, network, transport, state, ...),
// a severity and a retry strategy. The CLI adapter turns the category into a
// process exit code so that an external scheduler can tell a failed manifest
// fetch from a state-store failure.
//
// Example usage:
//
//	err := errors.FetchError("fetch release manifest").
//		WithCause(httpErr).
//		WithContext("url", manifestURL).
//		Build()
package errors
