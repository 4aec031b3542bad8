package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestUpcomingBirthdayCodesMidMonth(t *testing.T) {
	codes := upcomingBirthdayCodes(day(2026, time.March, 10))

	assert.Equal(t, []int64{310, 311, 312, 313, 314, 315, 316}, codes)
}

func TestUpcomingBirthdayCodesYearWrap(t *testing.T) {
	codes := upcomingBirthdayCodes(day(2025, time.December, 30))

	assert.Equal(t, []int64{1230, 1231, 101, 102, 103, 104, 105}, codes)
}

func TestUpcomingBirthdayCodesIncludeLeapDayInCommonYear(t *testing.T) {
	// 2025 has no Feb 29; contacts born on a leap day are still due
	// when the window crosses the end of February.
	codes := upcomingBirthdayCodes(day(2025, time.February, 25))

	assert.Contains(t, codes, int64(228))
	assert.Contains(t, codes, int64(229))
	assert.Contains(t, codes, int64(301))
}

func TestUpcomingBirthdayCodesLeapYear(t *testing.T) {
	codes := upcomingBirthdayCodes(day(2024, time.February, 25))

	assert.Equal(t, []int64{225, 226, 227, 228, 229, 301, 302}, codes)
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, isLeapYear(2024))
	assert.True(t, isLeapYear(2000))
	assert.False(t, isLeapYear(1900))
	assert.False(t, isLeapYear(2025))
}
