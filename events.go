package smf

// DataByteAbsent is the sentinel the engine stores in Session.Data[1] for a
// channel-voice event that only carries one data byte (program change,
// channel pressure). Legal MIDI data bytes are 0x00-0x7F, so 0xFF is
// unambiguous (spec §9 Open Questions, resolved in DESIGN.md).
const DataByteAbsent byte = 0xFF

// TrackWriteMode selects, per track, how a host wants to produce an MTrk
// chunk (spec §4.6).
type TrackWriteMode int

const (
	// TrackModeEvents means the engine writes the MTrk header, lets the
	// host push events one at a time via the Session's Write* helper
	// methods from WriteHandlers.WriteTrackEvents, appends an
	// end-of-track meta-event if the host didn't write one itself, and
	// back-patches the chunk length.
	TrackModeEvents TrackWriteMode = iota
	// TrackModePreformatted means the host writes the entire MTrk chunk
	// itself using Session.WriteHeader/WriteBytes/CloseChunk, inside
	// WriteHandlers.WriteRawTrack.
	TrackModePreformatted
)

// Tempo is the decoded/host-supplied form of a Set Tempo meta-event
// (type 0x51). MicrosPerQuarter is always populated. BPM is populated only
// when FlagBPM is set; it is the sentinel 0 if the rounded BPM would not fit
// in a byte (tempos faster than 255 BPM, i.e. fewer than about 234834
// microseconds/quarter), in which case only MicrosPerQuarter carries the
// tempo (DESIGN.md Open Question 2).
type Tempo struct {
	MicrosPerQuarter uint32
	BPM              uint8
}

// SMPTEOffset is the decoded/host-supplied form of an SMPTE Offset
// meta-event (type 0x54).
type SMPTEOffset struct {
	Hours            uint8
	Minutes          uint8
	Seconds          uint8
	Frames           uint8
	FractionalFrames uint8
}

// TimeSignature is the decoded/host-supplied form of a Time Signature
// meta-event (type 0x58). Denominator is the raw power-of-two exponent
// unless FlagDenom is set, in which case it is the real value (e.g. 4 for
// 4/4) -- see Value().
type TimeSignature struct {
	Numerator              uint8
	Denominator            uint8
	ClocksPerMetronomeTick uint8
	Notated32ndsPerQuarter uint8
}

// Value returns 1<<Denominator: the real denominator when Denominator holds
// the raw exponent (FlagDenom clear when the struct was populated). It does
// not check FlagDenom; with FlagDenom set, Denominator already holds the
// real value and Value does not return it.
func (t TimeSignature) Value() uint32 {
	return uint32(1) << uint32(t.Denominator)
}

// KeySignature is the decoded/host-supplied form of a Key Signature
// meta-event (type 0x59).
type KeySignature struct {
	// SharpsOrFlats ranges -7 (7 flats) to +7 (7 sharps); 0 is C/Am.
	SharpsOrFlats int8
	Minor         bool
}

// ReadHandlers is the set of callbacks a host supplies to Read. Every
// method receives the Session driving the operation; fields relevant to
// the event being reported are already populated on it (Session.Time,
// Session.Status, Session.Data, and so on -- see each method's doc).
// Returning a non-nil error aborts the read and is propagated unchanged
// from Read; a host wishing to signal its own fatal condition should
// return an *Error with a code >= ErrHostDefined.
type ReadHandlers interface {
	// StartHeader is called once, after the MThd chunk has been parsed:
	// Session.Format, NumTracks and Division are populated.
	StartHeader(s *Session) error
	// StartTrack is called when an MTrk chunk header is encountered,
	// before any of its events are decoded. Session.TrackNum identifies
	// which track this is (0-based).
	StartTrack(s *Session) error
	// UnknownChunk is called for any chunk ID other than MThd/MTrk. The
	// host may read up to Session.ChunkBytesRemaining bytes via
	// Session.ReadBytes; anything left unconsumed when this returns is
	// skipped automatically.
	UnknownChunk(s *Session) error
	// StandardEvent reports a channel voice/mode event (status
	// 0x80-0xEF) or a system common/realtime event with known arity
	// (0xF1/F2/F3/F6/F8/FA/FB/FC/FE). Session.Status holds the status
	// byte, Session.Data[0] and Session.Data[1] the data bytes
	// (Session.Data[1] is DataByteAbsent if the event only carries one).
	StandardEvent(s *Session) error
	// SysexEvent reports a SysEx (status 0xF0) or continuation/escape
	// (status 0xF7) event. Session.EventSize holds the payload length;
	// the host must consume exactly that many bytes via Session.ReadBytes
	// (or call Session.SkipEvent to discard them). Session.Flags&FlagSysex
	// tells a 0xF7 continuation from an escape event.
	SysexEvent(s *Session) error
	// MetaText reports a variable-length meta-event: a text-type event
	// (type 0x01-0x07), the proprietary type (0x7F), or any meta type the
	// engine doesn't synthesize a typed descriptor for. Session.Data[0]
	// holds the meta type; Session.EventSize the payload length, which the
	// host must consume via Session.ReadBytes or Session.SkipEvent.
	MetaText(s *Session) error
	// MetaSeqNum reports a Sequence Number meta-event (type 0x00).
	MetaSeqNum(s *Session, seq uint16) error
	// MetaTempo reports a Set Tempo meta-event (type 0x51).
	MetaTempo(s *Session, tempo Tempo) error
	// MetaSMPTE reports an SMPTE Offset meta-event (type 0x54).
	MetaSMPTE(s *Session, offset SMPTEOffset) error
	// MetaTimeSig reports a Time Signature meta-event (type 0x58).
	MetaTimeSig(s *Session, sig TimeSignature) error
	// MetaKeySig reports a Key Signature meta-event (type 0x59).
	MetaKeySig(s *Session, sig KeySignature) error
	// MetaEOT reports an End Of Track meta-event (type 0x2F). The engine
	// ends the current MTrk's decode loop immediately after this returns.
	MetaEOT(s *Session) error
}

// WriteHandlers is the set of callbacks a host supplies to Write.
type WriteHandlers interface {
	// StartHeader is called once; the host must set Session.Format,
	// NumTracks and Division before returning, after which the engine
	// emits the MThd chunk.
	StartHeader(s *Session) error
	// StartTrack is called before each MTrk; the host returns which of
	// the two write modes it wants to use for this track (spec §4.6).
	StartTrack(s *Session) (TrackWriteMode, error)
	// WriteTrackEvents is called when StartTrack returned TrackModeEvents.
	// The host produces the track's event stream by calling the Session's
	// WriteStandardEvent/WriteTempo/WriteTimeSignature/WriteKeySignature/
	// WriteSMPTEOffset/WriteSequenceNumber/WriteMetaText/WriteSysex
	// methods in time order, then returns. If the host did not itself
	// write an end-of-track event, the engine appends one.
	WriteTrackEvents(s *Session) error
	// WriteRawTrack is called when StartTrack returned
	// TrackModePreformatted. The host writes the entire MTrk chunk itself
	// via Session.WriteHeader/WriteBytes/CloseChunk.
	WriteRawTrack(s *Session) error
	// UnknownChunks is called once, after the final MTrk has been
	// written. The host may emit zero or more additional chunks via
	// Session.WriteHeader/WriteBytes/CloseChunk.
	UnknownChunks(s *Session) error
	// MetaText is invoked by WriteMetaText when the caller passed a nil
	// payload, so the host can stream the event's bytes via
	// Session.WriteBytes instead of handing over a fully materialized
	// slice. The host must write exactly Session.EventSize bytes.
	MetaText(s *Session) error
	// SysexEvent is invoked by WriteSysex under the same nil-payload
	// duality as MetaText.
	SysexEvent(s *Session) error
}
