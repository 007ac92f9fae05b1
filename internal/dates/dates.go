// dates.go
//
// Internship application lifecycle service
// Copyright (c) 2026 The training-rcf Authors
//
// This file is part of training-rcf.
// training-rcf is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// training-rcf is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with training-rcf.
// If not, see <https://www.gnu.org/licenses/>.

// Package dates holds the calendar arithmetic shared by application submission
// and approval. Every end date in the system is derived here.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format for calendar dates.
const Layout = "2006-01-02"

// DurationType is the unit of an internship duration.
type DurationType string

const (
	Days   DurationType = "days"
	Weeks  DurationType = "weeks"
	Months DurationType = "months"
)

// ParseDurationType normalizes a user supplied unit.
func ParseDurationType(s string) (DurationType, error) {
	switch DurationType(strings.ToLower(strings.TrimSpace(s))) {
	case Days, "day":
		return Days, nil
	case Weeks, "week":
		return Weeks, nil
	case Months, "month":
		return Months, nil
	}
	return "", fmt.Errorf("unknown duration type %q", s)
}

// Valid reports whether t is one of the known units.
func (t DurationType) Valid() bool {
	return t == Days || t == Weeks || t == Months
}

// Truncate drops the clock part of t and pins it to UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD calendar date.
func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Format renders a calendar date as YYYY-MM-DD.
func Format(t time.Time) string {
	return Truncate(t).Format(Layout)
}

// DeriveEndDate returns start plus the given duration.
//
// Month arithmetic clamps to the last day of the target month, so
// 2024-01-31 + 1 month is 2024-02-29 and never rolls into March.
func DeriveEndDate(start time.Time, value int, unit DurationType) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, fmt.Errorf("duration value must be positive, got %d", value)
	}
	start = Truncate(start)

	switch unit {
	case Days:
		return start.AddDate(0, 0, value), nil
	case Weeks:
		return start.AddDate(0, 0, 7*value), nil
	case Months:
		return addMonthsClamped(start, value), nil
	}
	return time.Time{}, fmt.Errorf("unknown duration type %q", unit)
}

func addMonthsClamped(start time.Time, months int) time.Time {
	y, m, d := start.Date()
	total := int(m) - 1 + months
	ty := y + total/12
	tm := time.Month(total%12 + 1)

	if last := daysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Describe renders a duration the way it appears on letters, e.g. "2 months".
func Describe(value int, unit DurationType) string {
	label := strings.TrimSuffix(string(unit), "s")
	if value != 1 {
		label += "s"
	}
	return fmt.Sprintf("%d %s", value, label)
}
