package logic

import "time"

// Rule describes when one half of a DST/STD pair starts, in local time,
// and the UTC offset (in minutes) that applies afterwards.
type Rule struct {
	Name    string
	Week    int // 1-4, or 0 for the last occurrence in the month
	Weekday time.Weekday
	Month   time.Month
	Hour    int
	Offset  int // minutes east of UTC
}

// Zone is a fixed DST/STD rule pair. There is no timezone database.
type Zone struct {
	DST Rule
	STD Rule
}

// USEastern is the default rule pair: DST from the second Sunday of March
// at 02:00, standard time from the first Sunday of November at 02:00.
var USEastern = Zone{
	DST: Rule{Name: "EDT", Week: 2, Weekday: time.Sunday, Month: time.March, Hour: 2, Offset: -240},
	STD: Rule{Name: "EST", Week: 1, Weekday: time.Sunday, Month: time.November, Hour: 2, Offset: -300},
}

// ToLocal converts a UTC Unix timestamp to local civil seconds.
func (z Zone) ToLocal(utc uint32) uint32 {
	return uint32(int64(utc) + int64(z.Offset(utc))*60)
}

// Offset returns the UTC offset in minutes in force at utc.
func (z Zone) Offset(utc uint32) int {
	if z.IsDST(utc) {
		return z.DST.Offset
	}
	return z.STD.Offset
}

// IsDST reports whether daylight time is in force at utc.
func (z Zone) IsDST(utc uint32) bool {
	if z.DST.Offset == z.STD.Offset {
		return false
	}
	t := int64(utc)
	year := time.Unix(t, 0).UTC().Year()

	// Each transition happens at local wall time under the offset in force before it.
	dstStart := z.DST.localStart(year) - int64(z.STD.Offset)*60
	stdStart := z.STD.localStart(year) - int64(z.DST.Offset)*60

	if dstStart < stdStart {
		return t >= dstStart && t < stdStart
	}
	// Southern hemisphere: DST spans the new year.
	return !(t >= stdStart && t < dstStart)
}

// localStart returns the transition instant as naive local seconds.
func (r Rule) localStart(year int) int64 {
	month := r.Month
	week := r.Week
	if week == 0 {
		// Find the first occurrence in the next month, then step back one week.
		month++
		if month > time.December {
			month = time.January
			year++
		}
		week = 1
	}
	t := time.Date(year, month, 1, r.Hour, 0, 0, 0, time.UTC)
	days := (7+int(r.Weekday)-int(t.Weekday()))%7 + 7*(week-1)
	t = t.AddDate(0, 0, days)
	if r.Week == 0 {
		t = t.AddDate(0, 0, -7)
	}
	return t.Unix()
}
