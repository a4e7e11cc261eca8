// Package username derives login handles from a registrant's name and birth
// date: the first three letters of each name, uppercased, followed by the
// two-digit birth year and month (JOHDOE9005 for John Doe, May 1990).
// Collisions between registrants with matching seeds are resolved by a
// numeric suffix; uniqueness itself is enforced by the credential store's
// constraint, never by check-then-insert.
package username

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MaxAttempts bounds the suffix search before registration fails.
const MaxAttempts = 10

// Seed builds the deterministic base handle. Names shorter than three
// letters are padded with 'X' so the handle keeps its fixed shape.
func Seed(firstName, lastName string, dateOfBirth time.Time) string {
	return letterPrefix(firstName) + letterPrefix(lastName) + dateOfBirth.Format("0601")
}

// Candidate returns the handle for the given attempt: the bare seed first,
// then seed plus a two-digit suffix (01..09).
func Candidate(seed string, attempt int) string {
	if attempt <= 0 {
		return seed
	}
	return fmt.Sprintf("%s%02d", seed, attempt)
}

// letterPrefix keeps the first three letters of a name, uppercased, padded
// with 'X'. Non-letters (hyphens, apostrophes, spaces) are skipped so
// "O'Brien" yields OBR and "De la Cruz" yields DEL.
func letterPrefix(name string) string {
	var b strings.Builder
	count := 0
	for _, r := range name {
		if !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		count++
		if count >= 3 {
			break
		}
	}
	for ; count < 3; count++ {
		b.WriteByte('X')
	}
	return b.String()
}
