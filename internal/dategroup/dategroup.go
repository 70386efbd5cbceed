// Package dategroup buckets date/time records into per-day groups with a
// deterministic chronological order and locale display labels.
package dategroup

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Slot is one record placed within a day.
type Slot[T any] struct {
	Time  string `json:"time"`
	Label string `json:"label"`
	Item  T      `json:"item"`
}

// Day is every slot sharing one calendar date.
type Day[T any] struct {
	Date  string    `json:"date"`
	Label string    `json:"label"`
	Slots []Slot[T] `json:"slots"`
}

// KeyFunc returns the calendar date (YYYY-MM-DD) and time of day (HH:MM)
// of an item.
type KeyFunc[T any] func(T) (date, clock string)

type keyed[T any] struct {
	day  time.Time
	at   time.Duration
	date string
	time string
	item T
}

// Group buckets items by calendar date. Days are ascending, slots within a
// day are ascending by time of day, and items with identical keys keep
// their input order. A nil formatter uses English labels.
func Group[T any](items []T, key KeyFunc[T], f *Formatter) ([]Day[T], error) {
	if f == nil {
		f = NewFormatter(English)
	}

	entries := make([]keyed[T], 0, len(items))
	for _, item := range items {
		date, clock := key(item)
		day, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		tod, err := time.Parse(timeLayout, clock)
		if err != nil {
			return nil, fmt.Errorf("parse time %q: %w", clock, err)
		}
		entries = append(entries, keyed[T]{
			day:  day,
			at:   time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute,
			date: day.Format(dateLayout),
			time: tod.Format(timeLayout),
			item: item,
		})
	}

	slices.SortStableFunc(entries, func(a, b keyed[T]) int {
		if c := a.day.Compare(b.day); c != 0 {
			return c
		}
		return cmp.Compare(a.at, b.at)
	})

	var days []Day[T]
	for _, e := range entries {
		if len(days) == 0 || days[len(days)-1].Date != e.date {
			days = append(days, Day[T]{Date: e.date, Label: f.Day(e.day)})
		}
		last := &days[len(days)-1]
		last.Slots = append(last.Slots, Slot[T]{
			Time:  e.time,
			Label: f.Clock(e.day.Add(e.at)),
			Item:  e.item,
		})
	}
	return days, nil
}

// Flatten returns the items of days in grouped order.
func Flatten[T any](days []Day[T]) []T {
	var out []T
	for _, d := range days {
		for _, s := range d.Slots {
			out = append(out, s.Item)
		}
	}
	return out
}
