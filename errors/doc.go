// Package errors provides structured error types for the vmi-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: field path, type names on
// both sides of the boundary, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseUnpack, errors.KindOutOfBounds).
//		Path("package", "buf").
//		Detail("field extends past end of region").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnknownFunction(errors.PhaseDispatch, sig)
//	err := errors.OutOfBounds(errors.PhaseDecode, path, offset, length, limit)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
