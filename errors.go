package smf

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is the engine's error taxonomy (spec §7). Positive codes below
// ErrHostDefined are raised by the engine itself; a host callback or
// IOCapability may return any other non-zero int (>= ErrHostDefined, or
// negative) to abort the operation with its own meaning.
type ErrorCode int

const (
	// ErrOpenFile means the target could not be opened.
	ErrOpenFile ErrorCode = 1
	// ErrFileInfo means the file's size could not be determined.
	ErrFileInfo ErrorCode = 2
	// ErrNoMIDI means the input lacked a required MThd chunk.
	ErrNoMIDI ErrorCode = 3
	// ErrRead means a read came up short, or the I/O capability failed.
	ErrRead ErrorCode = 4
	// ErrWrite means a write failed.
	ErrWrite ErrorCode = 5
	// ErrMalformed means the byte grammar itself was invalid: a VLQ
	// overflowed, a chunk's declared length ran past EOF, or a fixed-length
	// meta-event's declared length didn't match its type.
	ErrMalformed ErrorCode = 6
	// ErrRunningStatus means running status was used before any status byte
	// had been latched.
	ErrRunningStatus ErrorCode = 7
	// ErrUnknownEvent means an unrecognized status byte was encountered
	// inside an MTrk.
	ErrUnknownEvent ErrorCode = 8
	// ErrHostDefined is the first code reserved for host-defined errors; a
	// callback may also return any negative value less than -1.
	ErrHostDefined ErrorCode = 9
)

// messages mirrors the diagnostic strings the original MIDIFILE.DLL's
// MidiGetErr produced for each MIDIERR* code.
var messages = map[ErrorCode]string{
	ErrOpenFile:      "Can't open the MIDI file for reading/writing",
	ErrFileInfo:      "Can't determine the file size for reading",
	ErrNoMIDI:        "Tried to read a file that didn't contain a required MThd",
	ErrRead:          "An error while reading bytes from the file",
	ErrWrite:         "An error while writing bytes to the file",
	ErrMalformed:     "A mal-formed MIDI file -- it's garbage",
	ErrRunningStatus: "Encountered running status where it shouldn't be (mal-formed MTrk)",
	ErrUnknownEvent:  "Encountered an unknown status while reading in an MTrk",
}

// Error is the error type returned by every engine entry point. Code
// identifies which part of the spec §7 taxonomy was triggered; Err, when
// non-nil, is the underlying cause (an I/O error, or a wrapped host error).
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message(), e.Err)
	}
	return e.Message()
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the taxonomy's human-readable string for e.Code, the way
// the original MIDIFILE.DLL's MidiGetErr did, regardless of whether a
// wrapped cause is present.
func (e *Error) Message() string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	return fmt.Sprintf("host-defined error %d", int(e.Code))
}

// wrapErr builds an *Error for code, wrapping cause with a stack trace via
// github.com/pkg/errors so a host can log the original call site.
func wrapErr(code ErrorCode, cause error) *Error {
	if cause == nil {
		return &Error{Code: code}
	}
	return &Error{Code: code, Err: errors.WithStack(cause)}
}

// errorf formats a malformed-grammar diagnostic; kept distinct from fmt's
// own Errorf so callers always go through the Error taxonomy.
func errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
