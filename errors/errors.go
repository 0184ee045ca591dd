package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseSign     Phase = "sign"     // signature derivation
	PhaseEncode   Phase = "encode"   // value to transport
	PhaseDecode   Phase = "decode"   // transport to value
	PhasePack     Phase = "pack"     // parameter packaging
	PhaseUnpack   Phase = "unpack"   // parameter extraction
	PhaseLink     Phase = "link"     // host/guest linking
	PhaseDispatch Phase = "dispatch" // call resolution
	PhaseLoad     Phase = "load"     // image metadata loading
	PhaseCall     Phase = "call"     // boundary crossing
)

// Kind categorizes the error
type Kind string

const (
	KindSignatureMismatch   Kind = "signature_mismatch"
	KindSignatureCollision  Kind = "signature_collision"
	KindUnknownFunction     Kind = "unknown_function"
	KindOutOfBounds         Kind = "out_of_bounds"
	KindNilPointer          Kind = "nil_pointer"
	KindZeroSignature       Kind = "zero_signature"
	KindInvalidMeta         Kind = "invalid_meta"
	KindAlreadyConsumed     Kind = "already_consumed"
	KindAllocatorMismatch   Kind = "allocator_mismatch"
	KindMovedValue          Kind = "moved_value"
	KindTooManyParams       Kind = "too_many_params"
	KindUnsupported         Kind = "unsupported"
	KindAllocation          Kind = "allocation"
	KindInvalidInput        Kind = "invalid_input"
	KindNotInitialized      Kind = "not_initialized"
	KindMissingImplemention Kind = "missing_implementation"
	KindUnusedFunction      Kind = "unused_function"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	HostType  string
	GuestType string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HostType != "" || e.GuestType != "" {
		b.WriteString(": ")
		if e.HostType != "" && e.GuestType != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
			b.WriteString(", guest type ")
			b.WriteString(e.GuestType)
		} else if e.HostType != "" {
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		} else {
			b.WriteString("guest type ")
			b.WriteString(e.GuestType)
		}
	}

	if e.Detail != "" {
		if e.HostType != "" || e.GuestType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// HostType sets the host-side type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// GuestType sets the guest-side type name
func (b *Builder) GuestType(t string) *Builder {
	b.err.GuestType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownFunction creates an unknown function signature error
func UnknownFunction(phase Phase, sig uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownFunction,
		Detail: fmt.Sprintf("no entry registered for signature %#016x", sig),
	}
}

// SignatureMismatch creates a signature mismatch error for a named function
func SignatureMismatch(phase Phase, name string, host, guest uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSignatureMismatch,
		Path:   []string{name},
		Detail: fmt.Sprintf("host %#016x, guest %#016x", host, guest),
	}
}

// OutOfBounds creates a boundary fault error for a pointer outside the
// receiver's addressable region
func OutOfBounds(phase Phase, path []string, ptr, length, limit uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("region [%#x, %#x) exceeds addressable %#x bytes", ptr, ptr+length, limit),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// AlreadyConsumed creates an error for a second use of a consumed handle
func AlreadyConsumed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAlreadyConsumed,
		Detail: fmt.Sprintf("%s has already been consumed", what),
	}
}

// MovedValue creates an error for use of a value after its ownership moved
func MovedValue(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMovedValue,
		Detail: fmt.Sprintf("%s was moved and can no longer be used", what),
	}
}

// NotInitialized creates an error for use of an uninitialized component
func NotInitialized(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s is not initialized", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidMeta creates a malformed metadata error
func InvalidMeta(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidMeta,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Wrap wraps an underlying error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Cause:  cause,
		Detail: detail,
	}
}
