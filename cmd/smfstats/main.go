// This defines a command-line utility for gathering information about
// instruments used by MIDI files, driven by the smf package's streaming
// Read API rather than an in-memory whole-file parse.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/arlojames/smfengine"
)

// instrumentStats keeps track of accumulated event counts for each
// instrument across every file scanned.
type instrumentStats struct {
	// eventCounts[i] is the number of non-percussion note-on events played
	// with instrument i currently selected.
	eventCounts [128]uint64
	// percussionEventCounts[i] is the number of note-on events for
	// percussion note i (channel 10, index 9).
	percussionEventCounts [128]uint64
}

func (s *instrumentStats) printInfo() {
	for i := 0; i < 128; i++ {
		fmt.Printf("Instrument %d: %d events.\n", i, s.eventCounts[i])
	}
	for i := 0; i < 128; i++ {
		fmt.Printf("Percussion instrument %d: %d events.\n", i,
			s.percussionEventCounts[i])
	}
}

// statsHandlers implements smf.ReadHandlers, tallying note-on and
// program-change events into the shared instrumentStats as they stream by.
type statsHandlers struct {
	stats               *instrumentStats
	channelInstruments  [16]uint8
}

func (h *statsHandlers) StartHeader(s *smf.Session) error { return nil }

func (h *statsHandlers) StartTrack(s *smf.Session) error {
	// Reset per-track, matching the original tool's (possibly incorrect,
	// but preserved) assumption that instrument assignment doesn't carry
	// across tracks.
	for i := range h.channelInstruments {
		h.channelInstruments[i] = 0
	}
	return nil
}

func (h *statsHandlers) UnknownChunk(s *smf.Session) error { return nil }

func (h *statsHandlers) StandardEvent(s *smf.Session) error {
	switch s.Status & 0xf0 {
	case 0x90: // Note on
		channel := s.Status & 0x0f
		velocity := s.Data[1]
		if velocity == 0 {
			return nil // Note on with velocity 0 is really a note off.
		}
		if channel == 9 {
			h.stats.percussionEventCounts[s.Data[0]]++
		} else {
			h.stats.eventCounts[h.channelInstruments[channel]]++
		}
	case 0xc0: // Program change
		channel := s.Status & 0x0f
		h.channelInstruments[channel] = s.Data[0]
	}
	return nil
}

func (h *statsHandlers) SysexEvent(s *smf.Session) error  { return s.SkipEvent() }
func (h *statsHandlers) MetaText(s *smf.Session) error    { return s.SkipEvent() }
func (h *statsHandlers) MetaSeqNum(s *smf.Session, seq uint16) error               { return nil }
func (h *statsHandlers) MetaTempo(s *smf.Session, tempo smf.Tempo) error           { return nil }
func (h *statsHandlers) MetaSMPTE(s *smf.Session, offset smf.SMPTEOffset) error    { return nil }
func (h *statsHandlers) MetaTimeSig(s *smf.Session, sig smf.TimeSignature) error   { return nil }
func (h *statsHandlers) MetaKeySig(s *smf.Session, sig smf.KeySignature) error     { return nil }
func (h *statsHandlers) MetaEOT(s *smf.Session) error                             { return nil }

func addFile(stats *instrumentStats, name string) error {
	h := &statsHandlers{stats: stats}
	return smf.Read(name, nil, 0, h)
}

func run() int {
	var baseDir string
	flag.StringVar(&baseDir, "dir", "", "The directory to scan for .mid files")
	flag.Parse()
	if baseDir == "" {
		fmt.Println("A base directory must be specified. Run with -help for usage.")
		return 1
	}
	filenames, err := filepath.Glob(baseDir + "/*.mid")
	if err != nil {
		fmt.Printf("Failed looking up MIDI files in dir %s: %s\n", baseDir, err)
		return 1
	}
	if len(filenames) <= 0 {
		fmt.Printf("Didn't find any MIDI (.mid) files in dir %s.\n", baseDir)
		return 1
	}
	stats := &instrumentStats{}
	for i, name := range filenames {
		fmt.Printf("Scanning file %d/%d: %s\n", i+1, len(filenames), name)
		if err := addFile(stats, name); err != nil {
			fmt.Printf("Failed analyzing file %s: %s\n", name, err)
		}
		runtime.GC()
	}
	stats.printInfo()
	return 0
}

func main() {
	os.Exit(run())
}
