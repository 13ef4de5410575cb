// This defines a command-line host application that plays a standard MIDI
// file through a software synthesizer: it drives the smf package's
// streaming Read API, forwards every channel-voice event and tempo change
// it sees into a go-meltysynth Synthesizer, and streams the rendered audio
// out through Ebitengine's audio package. It demonstrates the engine's
// callback contract end-to-end -- exactly the "host application" spec.md §1
// says the engine delegates musical interpretation to.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
	"gopkg.in/ini.v1"

	"github.com/arlojames/smfengine"
	"github.com/arlojames/smfengine/internal/smflog"
)

// playConfig holds the knobs a .ini settings file (or flags) can set,
// mirroring zurustar-son-et/pkg/engine.go's GetIniInt/GetIniStr convention:
// flags override the .ini file, and the .ini file overrides these defaults.
type playConfig struct {
	SoundFont  string
	SampleRate int
	Gain       float64
}

// loadConfig reads section "smfplay" of an .ini file, falling back to the
// given defaults for any key that's absent or the file itself missing --
// same graceful-missing-file behavior as GetIniInt/GetIniStr.
func loadConfig(path string, defaults playConfig) playConfig {
	cfg := defaults
	if path == "" {
		return cfg
	}
	file, err := ini.Load(path)
	if err != nil {
		smflog.Get().Warn("could not load ini config, using defaults", "path", path, "error", err)
		return cfg
	}
	section := file.Section("smfplay")
	if v := section.Key("soundfont").String(); v != "" {
		cfg.SoundFont = v
	}
	if v, err := section.Key("sample_rate").Int(); err == nil && v > 0 {
		cfg.SampleRate = v
	}
	if v, err := section.Key("gain").Float64(); err == nil && v > 0 {
		cfg.Gain = v
	}
	return cfg
}

// midiEvent is a channel-voice/mode message recorded at its absolute MIDI
// tick, in the vocabulary meltysynth.Synthesizer.ProcessMidiMessage expects
// (channel, command, data1, data2).
type midiEvent struct {
	Tick                           uint32
	Channel, Command, Data1, Data2 int32
}

// tempoPoint is one Set Tempo meta-event, at the tick it occurs.
type tempoPoint struct {
	Tick             uint32
	MicrosPerQuarter uint32
}

// scheduler collects every ReadHandlers callback the smf package reports
// for all tracks into flat slices, in file order; run and newTickClock sort
// them by tick afterwards. Collecting into memory here
// is a host-side convenience -- spec.md's "no in-memory model of a whole
// file" non-goal binds the engine, not the application built on top of it.
type scheduler struct {
	ppqn   uint32
	events []midiEvent
	tempos []tempoPoint
}

func (s *scheduler) StartHeader(sess *smf.Session) error {
	s.ppqn = uint32(smf.DivisionTicksPerQuarterNote(sess.Division))
	if s.ppqn == 0 {
		s.ppqn = 96 // SMPTE-divided files: fall back to a reasonable tick rate.
	}
	return nil
}

func (s *scheduler) StartTrack(sess *smf.Session) error { return nil }

func (s *scheduler) UnknownChunk(sess *smf.Session) error { return nil }

func (s *scheduler) StandardEvent(sess *smf.Session) error {
	if sess.Status < 0x80 || sess.Status > 0xef {
		return nil // system common/realtime: nothing for the synth to do here.
	}
	data2 := int32(sess.Data[1])
	if sess.Data[1] == smf.DataByteAbsent {
		data2 = 0
	}
	s.events = append(s.events, midiEvent{
		Tick:    sess.Time,
		Channel: int32(sess.Status & 0x0f),
		Command: int32(sess.Status & 0xf0),
		Data1:   int32(sess.Data[0]),
		Data2:   data2,
	})
	return nil
}

func (s *scheduler) SysexEvent(sess *smf.Session) error { return sess.SkipEvent() }

func (s *scheduler) MetaText(sess *smf.Session) error { return sess.SkipEvent() }

func (s *scheduler) MetaSeqNum(sess *smf.Session, seq uint16) error { return nil }

func (s *scheduler) MetaTempo(sess *smf.Session, tempo smf.Tempo) error {
	s.tempos = append(s.tempos, tempoPoint{Tick: sess.Time, MicrosPerQuarter: tempo.MicrosPerQuarter})
	return nil
}

func (s *scheduler) MetaSMPTE(sess *smf.Session, offset smf.SMPTEOffset) error { return nil }

func (s *scheduler) MetaTimeSig(sess *smf.Session, sig smf.TimeSignature) error { return nil }

func (s *scheduler) MetaKeySig(sess *smf.Session, sig smf.KeySignature) error { return nil }

func (s *scheduler) MetaEOT(sess *smf.Session) error { return nil }

// tickClock converts MIDI ticks to absolute sample offsets given a tempo
// map, precalculating cumulative sample counts per tempo segment like
// zurustar-son-et/pkg/vm/audio.TickCalculator, run in the opposite
// direction (ticks -> samples instead of samples -> ticks). SampleAt finds
// the segment with a linear scan from the last tempo backwards.
type tickClock struct {
	ppqn          uint32
	sampleRate    int
	tempos        []tempoPoint // sorted by Tick, always starts at Tick 0
	samplesAtTick []int64      // cumulative sample count at tempos[i].Tick
}

func newTickClock(ppqn uint32, sampleRate int, tempos []tempoPoint) *tickClock {
	if len(tempos) == 0 || tempos[0].Tick != 0 {
		tempos = append([]tempoPoint{{Tick: 0, MicrosPerQuarter: 500000}}, tempos...)
	}
	sort.SliceStable(tempos, func(i, j int) bool { return tempos[i].Tick < tempos[j].Tick })

	tc := &tickClock{ppqn: ppqn, sampleRate: sampleRate, tempos: tempos}
	tc.samplesAtTick = make([]int64, len(tempos))
	for i := 1; i < len(tempos); i++ {
		prev := tempos[i-1]
		ticks := int64(tempos[i].Tick - prev.Tick)
		tc.samplesAtTick[i] = tc.samplesAtTick[i-1] + tc.samplesPerTick(prev.MicrosPerQuarter)*ticks
	}
	return tc
}

func (tc *tickClock) samplesPerTick(microsPerQuarter uint32) int64 {
	return int64(float64(tc.sampleRate) * float64(microsPerQuarter) / float64(tc.ppqn) / 1e6)
}

// SampleAt returns the absolute sample offset at which tick occurs.
func (tc *tickClock) SampleAt(tick uint32) int64 {
	idx := 0
	for i := len(tc.tempos) - 1; i >= 0; i-- {
		if tick >= tc.tempos[i].Tick {
			idx = i
			break
		}
	}
	seg := tc.tempos[idx]
	ticksInSeg := int64(tick - seg.Tick)
	return tc.samplesAtTick[idx] + tc.samplesPerTick(seg.MicrosPerQuarter)*ticksInSeg
}

// sampleEvent is a midiEvent already placed on the sample timeline.
type sampleEvent struct {
	SampleOffset                   int64
	Channel, Command, Data1, Data2 int32
}

// synthStream renders PCM from a meltysynth.Synthesizer on demand, firing
// any events due at the current sample position immediately before
// rendering the span up to the next one. Mirrors the Read-as-io.Reader and
// clamp-to-int16 conversion of zurustar-son-et/pkg/vm/audio.MIDIStream, but
// is driven by this package's own event schedule rather than
// meltysynth.MidiFileSequencer (which would bypass the smf engine entirely).
type synthStream struct {
	synth    *meltysynth.Synthesizer
	events   []sampleEvent
	cursor   int
	rendered int64
	tailEnd  int64 // rendered value at which playback is considered done
	gain     float64
}

func newSynthStream(synth *meltysynth.Synthesizer, events []sampleEvent, sampleRate int, gain float64) *synthStream {
	tail := int64(0)
	if len(events) > 0 {
		tail = events[len(events)-1].SampleOffset
	}
	tail += int64(2 * sampleRate) // let the last note's release tail ring out
	return &synthStream{synth: synth, events: events, tailEnd: tail, gain: gain}
}

func (s *synthStream) Read(buf []byte) (int, error) {
	samplesNeeded := len(buf) / 4
	if samplesNeeded == 0 {
		return 0, nil
	}
	left := make([]float32, samplesNeeded)
	right := make([]float32, samplesNeeded)

	rendered := 0
	for rendered < samplesNeeded {
		for s.cursor < len(s.events) && s.events[s.cursor].SampleOffset <= s.rendered {
			e := s.events[s.cursor]
			s.synth.ProcessMidiMessage(e.Channel, e.Command, e.Data1, e.Data2)
			s.cursor++
		}
		span := samplesNeeded - rendered
		if s.cursor < len(s.events) {
			if until := int(s.events[s.cursor].SampleOffset - s.rendered); until < span {
				span = until
			}
		}
		if span <= 0 {
			span = 1
		}
		s.synth.Render(left[rendered:rendered+span], right[rendered:rendered+span])
		s.rendered += int64(span)
		rendered += span
	}

	for i := 0; i < samplesNeeded; i++ {
		l := clampF(left[i], -1, 1) * 32767 * float32(s.gain)
		r := clampF(right[i], -1, 1) * 32767 * float32(s.gain)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(int16(l)))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(int16(r)))
	}

	return len(buf), nil
}

func (s *synthStream) done() bool {
	return s.cursor >= len(s.events) && s.rendered >= s.tailEnd
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func run() int {
	var filename, soundFontPath, configPath, logLevel string
	var sampleRate int
	var gain float64
	flag.StringVar(&filename, "input_file", "", "The .mid file to play.")
	flag.StringVar(&soundFontPath, "soundfont", "", "Path to a .sf2 SoundFont file (overrides the config file).")
	flag.StringVar(&configPath, "config", "", "Optional .ini settings file (section [smfplay]: soundfont, sample_rate, gain).")
	flag.IntVar(&sampleRate, "sample_rate", 0, "Audio sample rate in Hz (overrides the config file; default 44100).")
	flag.Float64Var(&gain, "gain", 0, "Output gain multiplier (overrides the config file; default 1.0).")
	flag.StringVar(&logLevel, "log_level", "warn", "Log level: debug, info, warn, or error.")
	flag.Parse()

	if err := smflog.Init(logLevel); err != nil {
		fmt.Printf("Invalid -log_level: %s\n", err)
		return 1
	}
	if filename == "" {
		fmt.Printf("Invalid arguments. Run with -help for more information.\n")
		return 1
	}

	cfg := loadConfig(configPath, playConfig{SampleRate: 44100, Gain: 1.0})
	if soundFontPath != "" {
		cfg.SoundFont = soundFontPath
	}
	if sampleRate != 0 {
		cfg.SampleRate = sampleRate
	}
	if gain != 0 {
		cfg.Gain = gain
	}
	if cfg.SoundFont == "" {
		fmt.Printf("A SoundFont is required: pass -soundfont or set it in -config's [smfplay] section.\n")
		return 1
	}

	sf2Data, err := os.ReadFile(cfg.SoundFont)
	if err != nil {
		fmt.Printf("Couldn't read SoundFont %s: %s\n", cfg.SoundFont, err)
		return 1
	}
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(sf2Data))
	if err != nil {
		fmt.Printf("Couldn't parse SoundFont %s: %s\n", cfg.SoundFont, err)
		return 1
	}
	settings := meltysynth.NewSynthesizerSettings(int32(cfg.SampleRate))
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		fmt.Printf("Couldn't create synthesizer: %s\n", err)
		return 1
	}

	sched := &scheduler{}
	if err := smf.Read(filename, nil, 0, sched); err != nil {
		fmt.Printf("Couldn't read %s: %s\n", filename, err)
		return 1
	}

	clock := newTickClock(sched.ppqn, cfg.SampleRate, sched.tempos)
	sort.SliceStable(sched.events, func(i, j int) bool { return sched.events[i].Tick < sched.events[j].Tick })
	samples := make([]sampleEvent, len(sched.events))
	for i, e := range sched.events {
		samples[i] = sampleEvent{
			SampleOffset: clock.SampleAt(e.Tick),
			Channel:      e.Channel, Command: e.Command, Data1: e.Data1, Data2: e.Data2,
		}
	}

	stream := newSynthStream(synth, samples, cfg.SampleRate, cfg.Gain)
	audioCtx := audio.NewContext(cfg.SampleRate)
	player, err := audioCtx.NewPlayer(stream)
	if err != nil {
		fmt.Printf("Couldn't create audio player: %s\n", err)
		return 1
	}
	player.Play()

	for !stream.done() {
		time.Sleep(50 * time.Millisecond)
	}
	player.Close()
	return 0
}

func main() {
	os.Exit(run())
}
