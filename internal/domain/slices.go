package domain

// SliceAround cuts a window out of a full merged media timeline.
// items must already be in merged order: predecessor entries first,
// ascending by message id within each timeline. A zero anchor means
// the latest window.
func SliceAround(items []MediaItem, migrated PeerID, around FullMsgID, limitBefore, limitAfter int) MediaSlice {
	if len(items) == 0 {
		return MediaSlice{}
	}
	anchor := len(items) - 1
	if !around.Zero() {
		for i, it := range items {
			if !UniversalBefore(it.ID, around, migrated) {
				anchor = i
				break
			}
		}
	}
	start := anchor - limitBefore
	if start < 0 {
		start = 0
	}
	end := anchor + limitAfter + 1
	if end > len(items) {
		end = len(items)
	}
	out := make([]MediaItem, end-start)
	copy(out, items[start:end])
	return MediaSlice{
		Items:         out,
		SkippedBefore: start,
		SkippedAfter:  len(items) - end,
	}
}

// UniversalBefore orders two message locations on a merged timeline:
// every predecessor message sorts before every successor message, and
// message id decides within one timeline.
func UniversalBefore(a, b FullMsgID, migrated PeerID) bool {
	ra, rb := 1, 1
	if migrated != 0 && a.Peer == migrated {
		ra = 0
	}
	if migrated != 0 && b.Peer == migrated {
		rb = 0
	}
	if ra != rb {
		return ra < rb
	}
	return a.Msg < b.Msg
}
