package logic

// LocalClock extrapolates wall-clock time from the last successful sync
// using the monotonic tick counter. All arithmetic is uint32 so that a
// wrapped tick counter still yields the right elapsed interval.
type LocalClock struct {
	anchorUnixTime uint32
	anchorTickTime uint32
	lastSyncTick   uint32
}

// OnSyncSuccess anchors the clock. unixTime must already be in local time.
func (c *LocalClock) OnSyncSuccess(unixTime, now uint32) {
	c.anchorUnixTime = unixTime
	c.anchorTickTime = now
	c.lastSyncTick = now
}

// Synced reports whether the clock has ever been anchored.
func (c *LocalClock) Synced() bool {
	return c.anchorUnixTime != 0
}

// Extrapolate returns the current local time, or 0 if never synced.
func (c *LocalClock) Extrapolate(now uint32) uint32 {
	if c.anchorUnixTime == 0 {
		return 0
	}
	return c.anchorUnixTime + (now-c.anchorTickTime)/1000
}

// Staleness returns milliseconds since the last successful sync
// (or since tick zero if there never was one).
func (c *LocalClock) Staleness(now uint32) uint32 {
	return now - c.lastSyncTick
}
