package styleprofile

import (
	"math"
	"sort"
	"strings"
	"time"
)

const (
	maxResponseMinutes  = 24 * 60
	defaultResponseMean = 5.0
	defaultResponseStd  = 3.0
	defaultBurstLength  = 1.0
	activeHourCount     = 10
	morningHourLimit    = 10
	eveningHourStart    = 18
	weekendHeavier      = 1.25
	weekdayHeavier      = 0.75
)

// BurstStats summarises runs of consecutive subject messages across the full corpus.
type BurstStats struct {
	// ConsecutiveBursts counts runs longer than one message.
	ConsecutiveBursts int
	BurstLengths      []int
	// TotalResponses is the number of other-to-subject transitions, at least 1.
	TotalResponses       int
	MultiMessageTendency float64
	AvgMessagesPerBurst  float64
}

// DetectBursts scans the corpus once. A run of subject messages continues until the other party speaks,
// so empty-text subject messages still extend a burst.
func DetectBursts(msgs []Message) BurstStats {
	var st BurstStats
	run := 0
	closeRun := func() {
		if run > 1 {
			st.ConsecutiveBursts++
			st.BurstLengths = append(st.BurstLengths, run)
		}
		run = 0
	}
	transitions := 0
	for i, m := range msgs {
		if !m.IsFromMe {
			closeRun()
			continue
		}
		run++
		if i > 0 && !msgs[i-1].IsFromMe {
			transitions++
		}
	}
	closeRun()

	st.TotalResponses = max(1, transitions)
	st.MultiMessageTendency = math.Min(float64(st.ConsecutiveBursts)/float64(st.TotalResponses), 1.0)
	st.AvgMessagesPerBurst = defaultBurstLength
	if len(st.BurstLengths) > 0 {
		sum := 0
		for _, n := range st.BurstLengths {
			sum += n
		}
		st.AvgMessagesPerBurst = float64(sum) / float64(len(st.BurstLengths))
	}
	return st
}

// ResponseTimes holds the subject's reply latencies in minutes.
type ResponseTimes struct {
	Samples []float64
	Mean    float64
	// Std is the population standard deviation.
	Std float64
	// Skipped counts other-to-subject pairs dropped because a timestamp did not parse.
	Skipped int
}

// ResponseTimeStats measures every other-to-subject adjacent pair. Deltas outside (0, 1440) minutes are
// discarded as overnight gaps or clock noise.
func ResponseTimeStats(msgs []Message) ResponseTimes {
	var rt ResponseTimes
	for i := 1; i < len(msgs); i++ {
		if !msgs[i].IsFromMe || msgs[i-1].IsFromMe {
			continue
		}
		prev, err := parseTimestamp(msgs[i-1].Date)
		if err != nil {
			rt.Skipped++
			continue
		}
		cur, err := parseTimestamp(msgs[i].Date)
		if err != nil {
			rt.Skipped++
			continue
		}
		d := cur.Sub(prev).Minutes()
		if d > 0 && d < maxResponseMinutes {
			rt.Samples = append(rt.Samples, d)
		}
	}

	rt.Mean = defaultResponseMean
	if len(rt.Samples) > 0 {
		sum := 0.0
		for _, s := range rt.Samples {
			sum += s
		}
		rt.Mean = sum / float64(len(rt.Samples))
	}
	rt.Std = defaultResponseStd
	if len(rt.Samples) > 1 {
		ss := 0.0
		for _, s := range rt.Samples {
			ss += (s - rt.Mean) * (s - rt.Mean)
		}
		rt.Std = math.Sqrt(ss / float64(len(rt.Samples)))
	}
	return rt
}

// Activity is the subject's hour-of-day and day-of-week footprint.
type Activity struct {
	// MostActiveHours are the ten most frequent hours, ascending.
	MostActiveHours  []int
	MorningStyle     string
	EveningStyle     string
	WeekendVsWeekday string
	Skipped          int
}

// ActivityStats buckets subject messages by the hour of their own timestamp offset.
func ActivityStats(subject []Message) Activity {
	hours := newCounter[int]()
	var a Activity
	parsed, weekend := 0, 0
	for _, m := range subject {
		ts, err := parseTimestamp(m.Date)
		if err != nil {
			a.Skipped++
			continue
		}
		hours.add(ts.Hour())
		parsed++
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
	}

	a.MostActiveHours = make([]int, 0, activeHourCount)
	for _, e := range hours.mostCommon(activeHourCount) {
		a.MostActiveHours = append(a.MostActiveHours, e.key)
	}
	sort.Ints(a.MostActiveHours)

	a.MorningStyle, a.EveningStyle = PeriodInactive, PeriodInactive
	for _, h := range a.MostActiveHours {
		if h < morningHourLimit {
			a.MorningStyle = MorningMinimal
		}
		if h >= eveningHourStart && h <= 23 {
			a.EveningStyle = EveningEngaged
		}
	}
	a.WeekendVsWeekday = WeekendLabel(weekend, parsed)
	return a
}

// WeekendLabel compares the weekend share of messages against the 2/7 a uniform week would give.
func WeekendLabel(weekend, total int) string {
	if total == 0 {
		return WeekSimilar
	}
	r := (float64(weekend) / float64(total)) / (2.0 / 7.0)
	switch {
	case r > weekendHeavier:
		return WeekendsHeavier
	case r < weekdayHeavier:
		return WeekdaysHeavier
	default:
		return WeekSimilar
	}
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTimestamp accepts RFC 3339 and offset-less ISO-8601; the latter is read as UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
