// Package linker validates the call surface between host and guest before
// any control transfer happens.
//
// Both directions are checked with the same rules. For guest-to-host calls
// the guest's import metadata must find a host implementation; for
// host-to-guest calls every function the host requires must appear in the
// guest's export metadata. On either side, two functions hashing to the same
// identity are a collision, and a function present on both sides under the
// same name but with different identities is a mismatch. Functions that one
// side declares and the other never references are reported as warnings, or
// as errors when the Options say so.
//
// A successful link produces a LinkSet: the identity-to-entry tables the
// runtime dispatches from. Nothing is callable that did not pass through
// this validation.
package linker
