// This defines a command-line utility for dumping the structure and events
// of a standard MIDI file (SMF, usually with a ".mid" extension) to stdout,
// driven entirely by the smf package's streaming Read API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/arlojames/smfengine"
	"github.com/arlojames/smfengine/internal/smflog"
)

// dumpHandlers implements smf.ReadHandlers, printing each chunk and event as
// it is decoded.
type dumpHandlers struct {
	showEvents bool
	sjis       bool
}

func (h *dumpHandlers) StartHeader(s *smf.Session) error {
	fmt.Printf("MThd: format %d, %d track(s), division 0x%04x\n",
		s.Format, s.NumTracks, s.Division)
	if ppq := smf.DivisionTicksPerQuarterNote(s.Division); ppq != 0 {
		fmt.Printf("  %d ticks per quarter note\n", ppq)
	} else {
		fps, tpf := smf.DivisionSMPTE(s.Division)
		fmt.Printf("  SMPTE: %d frames/sec, %d ticks/frame\n", fps, tpf)
	}
	return nil
}

func (h *dumpHandlers) StartTrack(s *smf.Session) error {
	fmt.Printf("MTrk %d:\n", s.TrackNum)
	return nil
}

func (h *dumpHandlers) UnknownChunk(s *smf.Session) error {
	fmt.Printf("  Unknown chunk %q (%d bytes), skipping\n", s.ChunkID, s.ChunkBytesRemaining)
	return nil
}

func (h *dumpHandlers) StandardEvent(s *smf.Session) error {
	if !h.showEvents {
		return nil
	}
	if s.Data[1] == smf.DataByteAbsent {
		fmt.Printf("  t=%-8d status=0x%02x data=0x%02x\n", s.Time, s.Status, s.Data[0])
	} else {
		fmt.Printf("  t=%-8d status=0x%02x data=0x%02x 0x%02x\n", s.Time, s.Status, s.Data[0], s.Data[1])
	}
	return nil
}

func (h *dumpHandlers) SysexEvent(s *smf.Session) error {
	buf := make([]byte, s.EventSize)
	if err := s.ReadBytes(buf); err != nil {
		return err
	}
	if h.showEvents {
		fmt.Printf("  t=%-8d sysex (%d bytes): % x\n", s.Time, len(buf), buf)
	}
	return nil
}

func (h *dumpHandlers) MetaText(s *smf.Session) error {
	buf := make([]byte, s.EventSize)
	if err := s.ReadBytes(buf); err != nil {
		return err
	}
	if !h.showEvents {
		return nil
	}
	text := string(buf)
	if h.sjis && s.Data[0] >= 0x01 && s.Data[0] <= 0x0f {
		if decoded, err := smf.DecodeMetaText(buf); err == nil {
			text = decoded
		}
	}
	fmt.Printf("  t=%-8d meta 0x%02x: %q\n", s.Time, s.Data[0], text)
	return nil
}

func (h *dumpHandlers) MetaSeqNum(s *smf.Session, seq uint16) error {
	if h.showEvents {
		fmt.Printf("  t=%-8d sequence number %d\n", s.Time, seq)
	}
	return nil
}

func (h *dumpHandlers) MetaTempo(s *smf.Session, tempo smf.Tempo) error {
	fmt.Printf("  t=%-8d tempo: %d us/quarter\n", s.Time, tempo.MicrosPerQuarter)
	return nil
}

func (h *dumpHandlers) MetaSMPTE(s *smf.Session, offset smf.SMPTEOffset) error {
	if h.showEvents {
		fmt.Printf("  t=%-8d SMPTE offset: %02d:%02d:%02d.%02d\n",
			s.Time, offset.Hours, offset.Minutes, offset.Seconds, offset.Frames)
	}
	return nil
}

func (h *dumpHandlers) MetaTimeSig(s *smf.Session, sig smf.TimeSignature) error {
	fmt.Printf("  t=%-8d time signature: %d/%d\n", s.Time, sig.Numerator, sig.Value())
	return nil
}

func (h *dumpHandlers) MetaKeySig(s *smf.Session, sig smf.KeySignature) error {
	fmt.Printf("  t=%-8d key signature: %d sharps/flats, minor=%v\n", s.Time, sig.SharpsOrFlats, sig.Minor)
	return nil
}

func (h *dumpHandlers) MetaEOT(s *smf.Session) error {
	fmt.Printf("  t=%-8d end of track\n", s.Time)
	return nil
}

func run() int {
	var filename, logLevel string
	var dumpEvents bool
	flag.StringVar(&filename, "input_file", "", "The .mid file to dump.")
	flag.BoolVar(&dumpEvents, "dump_events", false, "If set, print every "+
		"event in the file rather than just chunk/tempo/time-signature/"+
		"key-signature/end-of-track summaries.")
	flag.StringVar(&logLevel, "log_level", "warn", "Log level: debug, info, warn, or error.")
	var sjis bool
	flag.BoolVar(&sjis, "sjis", false, "Decode text meta-events (track name, "+
		"lyric, marker, ...) from Shift-JIS instead of printing raw bytes.")
	flag.Parse()

	if err := smflog.Init(logLevel); err != nil {
		fmt.Printf("Invalid -log_level: %s\n", err)
		return 1
	}
	if filename == "" {
		fmt.Printf("Invalid arguments. Run with -help for more information.\n")
		return 1
	}

	h := &dumpHandlers{showEvents: dumpEvents, sjis: sjis}
	if err := smf.Read(filename, nil, 0, h); err != nil {
		fmt.Printf("Couldn't dump %s: %s\n", filename, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}
