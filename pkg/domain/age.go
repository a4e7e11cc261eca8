package domain

import "time"

// MeetsMinimumAge returns true if the person with the given birth date is at
// least minYears old at the specified reference time. Uses calendar
// arithmetic (AddDate) for accurate birthday-boundary handling: a person is
// eligible starting on the day of their minYears-th birthday.
//
// Example:
//
//	birthDate := time.Date(2008, 1, 15, 0, 0, 0, 0, time.UTC)
//	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) // Exactly 16th birthday
//	MeetsMinimumAge(birthDate, now, 16) // returns true
func MeetsMinimumAge(birthDate, now time.Time, minYears int) bool {
	eligibleAt := birthDate.UTC().AddDate(minYears, 0, 0)
	return !now.UTC().Before(eligibleAt)
}
