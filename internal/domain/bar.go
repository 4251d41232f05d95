package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// BarTime is a provider-native bar timestamp. Providers ship either a
// "YYYY-MM-DD" / "YYYY-MM-DD HH:MM:SS" string or an epoch-milliseconds
// number; anything else (null, objects) is tolerated on decode and marks
// the bar as unusable.
type BarTime struct {
	text   string
	epoch  int64
	isText bool
	valid  bool
}

// TextBarTime builds a BarTime from a provider date string.
func TextBarTime(s string) BarTime {
	return BarTime{text: s, isText: true, valid: true}
}

// EpochBarTime builds a BarTime from epoch milliseconds.
func EpochBarTime(ms int64) BarTime {
	return BarTime{epoch: ms, valid: true}
}

// UnmarshalJSON accepts a string or a number. Other JSON values decode
// into an invalid BarTime rather than failing the whole series.
func (t *BarTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TextBarTime(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*t = EpochBarTime(int64(n))
		return nil
	}
	*t = BarTime{}
	return nil
}

// Day normalizes the timestamp to a UTC calendar date. String timestamps
// contribute their date portion (before the first space) and must parse as
// YYYY-MM-DD; numeric timestamps are epoch milliseconds. The second return
// is false when no calendar date can be determined.
func (t BarTime) Day() (string, bool) {
	if !t.valid {
		return "", false
	}
	if t.isText {
		day, _, _ := strings.Cut(t.text, " ")
		if _, err := time.Parse(DateLayout, day); err != nil {
			return "", false
		}
		return day, true
	}
	return time.UnixMilli(t.epoch).UTC().Format(DateLayout), true
}

// PriceSeries holds one asset's daily bars as parallel channels, the shape
// price providers return them in. Channels are not guaranteed equal length.
// Entries that were absent or non-numeric at the provider are NaN.
type PriceSeries struct {
	Timestamp []BarTime
	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64
	Volume    []float64
}

// UsableLen is the number of bars that have an entry in every channel:
// the minimum length across timestamp and all five OHLCV channels.
func (s *PriceSeries) UsableLen() int {
	n := len(s.Timestamp)
	for _, ch := range [][]float64{s.Open, s.High, s.Low, s.Close, s.Volume} {
		if len(ch) < n {
			n = len(ch)
		}
	}
	return n
}

// InvalidValue marks a channel entry the provider could not supply.
func InvalidValue() float64 { return math.NaN() }
