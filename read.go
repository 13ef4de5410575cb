package smf

// Read drives an entire SMF read operation against target, dispatching
// every chunk and event it finds to h (spec §4.1-§4.5). flags controls the
// engine/convenience behavior described on the Flags constants; FlagWrite is
// cleared unconditionally regardless of what the caller passes.
//
// Read owns the handle it opens via io and always closes it, whether it
// returns successfully or with an error (spec §5).
func Read(target string, io IOCapability, flags Flags, h ReadHandlers) error {
	if io == nil {
		io = NewFileIO()
	}
	s := newSession(ModeReading, io)
	s.Flags = flags &^ FlagWrite

	defer s.closeOwned()
	if err := s.open(target, ModeRead); err != nil {
		return err
	}

	return readSession(s, h)
}

// ReadSession drives a read using a Session the caller has already attached
// to a live handle (for example, one obtained via a host-managed
// IOCapability.Open call outside of Read's ownership). The caller remains
// responsible for closing the handle.
func ReadSession(s *Session, h ReadHandlers) error {
	s.Mode = ModeReading
	s.Flags &^= FlagWrite
	return readSession(s, h)
}

func readSession(s *Session, h ReadHandlers) error {
	if err := s.readChunkHeader(); err != nil {
		return err
	}
	if !CompareID(s.ChunkID, "MThd") {
		return wrapErr(ErrNoMIDI, errorf("first chunk was %q, not MThd", s.ChunkID))
	}
	if err := s.readHeader(); err != nil {
		return err
	}
	if err := h.StartHeader(s); err != nil {
		return err
	}

	s.TrackNum = 0
	for s.FileBytesRemaining > 0 {
		if err := s.readChunkHeader(); err != nil {
			return err
		}
		switch {
		case CompareID(s.ChunkID, "MTrk"):
			s.PrevTime = 0
			s.Time = 0
			s.RunStatus = 0
			if err := h.StartTrack(s); err != nil {
				return err
			}
			if err := decodeTrack(s, h); err != nil {
				return err
			}
			if err := s.SkipChunk(); err != nil {
				return err
			}
			s.TrackNum++
		default:
			if err := h.UnknownChunk(s); err != nil {
				return err
			}
			if err := s.SkipChunk(); err != nil {
				return err
			}
		}
	}
	return nil
}
