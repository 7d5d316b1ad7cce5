package mpe

// Controller numbers taking part in (N)RPN conversations
const (
	ccDataEntryMSB uint8 = 6
	ccDataEntryLSB uint8 = 38
	ccNRPNLSB      uint8 = 98
	ccNRPNMSB      uint8 = 99
	ccRPNLSB       uint8 = 100
	ccRPNMSB       uint8 = 101
)

// Channel mode controllers
const (
	ccAllSoundOff uint8 = 120
	ccOmniOn      uint8 = 125
	ccMonoOn      uint8 = 126
	ccPolyOn      uint8 = 127
)

// rpnState tracks the registered parameter selected on one channel
type rpnState struct {
	msb, lsb int16 // -1 until set
}

func newRPNState() rpnState {
	return rpnState{msb: -1, lsb: -1}
}

// observe records a control change and reports whether it completed an
// MPE Configuration Message (RPN 6 data entry), returning the member count.
// The selection is kept after data entry so repeated CC6 values reconfigure.
func (r *rpnState) observe(cc, value uint8) (int, bool) {
	switch cc {
	case ccRPNMSB:
		r.msb = int16(value)
	case ccRPNLSB:
		r.lsb = int16(value)
	case ccNRPNMSB, ccNRPNLSB:
		// NRPN selection deselects the RPN
		r.msb, r.lsb = -1, -1
	case ccDataEntryMSB:
		if r.selectsMCM() {
			return int(value), true
		}
	}
	return 0, false
}

// selectsMCM accepts RPN 00/06 and, for controllers that send the
// selection bytes swapped, 06/00.
func (r *rpnState) selectsMCM() bool {
	return (r.msb == 0 && r.lsb == 6) || (r.msb == 6 && r.lsb == 0)
}

// managerOnly reports whether a controller sent on a manager channel stays
// there instead of reaching the sounding member channels
func managerOnly(cc uint8) bool {
	switch cc {
	case ccAllSoundOff, ccOmniOn, ccMonoOn, ccPolyOn:
		return true
	}
	return false
}

// zoneCacheable reports whether a controller value may be cached zone-wide
// and replayed on member channels. Channel mode messages and parameter number
// traffic depend on ordering and are never replayed.
func zoneCacheable(cc uint8) bool {
	switch {
	case cc >= ccAllSoundOff:
		return false
	case cc == ccDataEntryMSB, cc == ccDataEntryLSB:
		return false
	case cc >= ccNRPNLSB && cc <= ccRPNMSB:
		return false
	}
	return true
}
