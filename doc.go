// Package smf implements a streaming, callback-driven engine for reading
// and writing Standard MIDI Files (SMF, formats 0/1/2).
//
// The engine decodes or produces the SMF byte grammar -- header and track
// chunks, variable-length quantities, delta-timed events, running status,
// meta-events, and system-exclusive messages -- while leaving all domain
// handling of events (what a tempo means in wall-clock time, instrument
// mapping, sequencing) to a host application supplied through the
// ReadHandlers/WriteHandlers interfaces.
//
// The engine is single-threaded and synchronous: a Session is owned
// exclusively by one Read or Write call, and callbacks may only re-enter
// the engine through the Session's own helper methods.
package smf
