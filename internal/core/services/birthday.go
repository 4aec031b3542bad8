package services

import "time"

// upcomingBirthdayCodes returns a month*100+day code for every calendar
// date from today through today+6, so birthdays match regardless of
// birth year and across a year-end wrap (Dec 28 covers through Jan 3).
// When the window passes Feb 28 of a non-leap year, Feb 29 is added so
// leap-day birthdays are not skipped three years out of four.
func upcomingBirthdayCodes(today time.Time) []int64 {
	codes := make([]int64, 0, 8)
	for i := 0; i < 7; i++ {
		d := today.AddDate(0, 0, i)
		codes = append(codes, int64(d.Month())*100+int64(d.Day()))
		if d.Month() == time.February && d.Day() == 28 && !isLeapYear(d.Year()) {
			codes = append(codes, 2*100+29)
		}
	}
	return codes
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
