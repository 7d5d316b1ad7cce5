package mpe

import "go-mpe/debug"

// SetupZone installs or removes the zone managed by manager (0 or 15) with
// members member channels. The opposite zone is shrunk, or removed when fewer
// than one member would remain, so the zones never overlap. It returns true
// when the opposite zone was changed.
//
// manager and members must already be validated; see Registry.SetupZone.
func SetupZone(s *Status, manager uint8, members int) bool {
	zone := s.zone(manager)
	other := s.Other(zone)
	zone.clear()

	if members <= 0 {
		return false
	}
	if members > MaxMembers {
		members = MaxMembers
	}

	otherChanged := false
	if other.Active() && members+other.members > 14 {
		debug.Log("zone", "member count %d overlaps zone %d with %d members", members, other.manager, other.members)
		otherChanged = true
		shrink(other, 14-members)
	}

	zone.members = members
	zone.slots[manager] = newMemberChannel(manager, true)
	if manager == LowerManager {
		for ch := 1; ch <= members; ch++ {
			zone.slots[ch] = newMemberChannel(uint8(ch), false)
		}
	} else {
		for ch := 15 - members; ch < 15; ch++ {
			zone.slots[ch] = newMemberChannel(uint8(ch), false)
		}
	}
	return otherChanged
}

// shrink drops member channels furthest from the manager until members remain
func shrink(z *Zone, members int) {
	if members < 1 {
		z.clear()
		return
	}
	if z.manager == LowerManager {
		for ch := members + 1; ch < 16; ch++ {
			z.slots[ch] = nil
		}
	} else {
		for ch := 0; ch < 15-members; ch++ {
			z.slots[ch] = nil
		}
	}
	z.members = members
}
