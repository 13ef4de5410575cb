package smf

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genChannelVoiceTriple generates a raw byte triple later interpreted as
// (status-kind selector, data1, data2) -- letting gopter shrink toward
// small, reproducible failing cases rather than hand-built fixtures.
func genChannelVoiceTriple() gopter.Gen {
	return gen.SliceOfN(3, gen.UInt8())
}

// TestRunningStatusWriteReadRoundTripProperty exercises spec.md §8's
// running-status invariant end to end: a run of channel-voice events
// written through WriteStandardEvent (which elides the status byte via
// running status whenever consecutive statuses match) must decode back,
// through decodeTrack's running-status handling, to the exact same events.
func TestRunningStatusWriteReadRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("WriteStandardEvent + decodeTrack round-trips a run of channel-voice events", prop.ForAll(
		func(triples [][]byte) bool {
			type want struct {
				status, data0, data1 byte
			}
			var wanted []want
			ws, mh := newWriteSessionToMemory()
			tick := uint32(0)
			for _, triple := range triples {
				if len(triple) != 3 {
					continue
				}
				status := byte(0x80 + (triple[0]%7)*0x10) // 0x80..0xe0, all legal channel-voice kinds
				data1 := triple[1] & 0x7f
				data2 := triple[2] & 0x7f
				if err := ws.WriteStandardEvent(tick, status, data1, data2); err != nil {
					t.Logf("WriteStandardEvent failed: %s", err)
					return false
				}
				if status&0xf0 == 0xc0 || status&0xf0 == 0xd0 {
					data2 = DataByteAbsent
				}
				wanted = append(wanted, want{status, data1, data2})
				tick += 4
			}
			if err := ws.WriteEndOfTrack(tick); err != nil {
				t.Logf("WriteEndOfTrack failed: %s", err)
				return false
			}

			rs := newReadSessionFromBytes(mh.buf)
			rs.ChunkBytesRemaining = int64(len(mh.buf))
			h := &recordingReadHandlers{}
			if err := decodeTrack(rs, h); err != nil {
				t.Logf("decodeTrack failed: %s", err)
				return false
			}
			if len(h.standardEvents) != len(wanted) {
				t.Logf("event count mismatch: wrote %d, decoded %d", len(wanted), len(h.standardEvents))
				return false
			}
			for i, w := range wanted {
				got := h.standardEvents[i]
				if got.Status != w.status || got.Data0 != w.data0 || got.Data1 != w.data1 {
					t.Logf("event %d mismatch: wrote %+v, decoded %+v", i, w, got)
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, genChannelVoiceTriple()),
	))

	properties.TestingRun(t)
}
