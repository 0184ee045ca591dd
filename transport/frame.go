package transport

import "github.com/wippyai/vmi-runtime/signature"

// Frame groups the designated slots committed before a control transfer.
// The same frame layout is used for both call directions; only the physical
// transfer mechanism differs.
type Frame struct {
	// Signature carries the target's FuncID on call. Unused on return.
	Signature signature.FuncID
	// Data occupies the Arg0/Arg1 slots on call and Ret0/Ret1 on return.
	Data Transport
}

// Call builds the frame committed by the caller before transferring control.
func Call(sig signature.FuncID, t Transport) Frame {
	return Frame{Signature: sig, Data: t}
}

// Return builds the frame committed by the callee before transferring
// control back. The signature slot is not part of the return convention.
func Return(t Transport) Frame {
	return Frame{Data: t}
}
