package mpe

// playingChannel returns the member channel currently sounding note
func (z *Zone) playingChannel(note uint8) *MemberChannel {
	for _, m := range z.slots {
		if m != nil && !m.Manager && m.Playing(note) {
			return m
		}
	}
	return nil
}

// Allocate picks the member channel that will play note.
//
// When the note is already sounding, that channel is returned with reuse set
// and the caller must stop the note there first. Otherwise an idle channel
// that last played the same note wins, then the idle channel released most
// recently (channels never used rank oldest, ties go to the lowest channel).
// In Poly mode a busy channel is stolen as a last resort: fewest sounding
// notes, then the most recent note on. Mono mode never steals.
func (z *Zone) Allocate(note uint8) (ch *MemberChannel, reuse bool, err error) {
	if m := z.playingChannel(note); m != nil {
		return m, true, nil
	}
	if m := z.selectChannel(note & 0x7f); m != nil {
		return m, false, nil
	}
	return nil, false, ErrNoFreeChannel
}

func (z *Zone) selectChannel(note uint8) *MemberChannel {
	members := z.MemberChannels()

	for _, m := range members {
		if m.Sounding() == 0 && m.lastNote == int(note) {
			return m
		}
	}

	var best *MemberChannel
	for _, m := range members {
		if m.Sounding() != 0 {
			continue
		}
		if best == nil || m.noteOff > best.noteOff {
			best = m
		}
	}
	if best != nil || z.mode != ModePoly {
		return best
	}

	for _, m := range members {
		if best == nil {
			best = m
			continue
		}
		n, bn := m.Sounding(), best.Sounding()
		if n < bn || (n == bn && m.noteOnAt > best.noteOnAt) {
			best = m
		}
	}
	return best
}
