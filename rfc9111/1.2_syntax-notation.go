package rfc9111

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// §  1.2.  Syntax Notation
// §
// §     This specification uses the Augmented Backus-Naur Form (ABNF)
// §     notation of [RFC5234], extended with the notation for case-
// §     sensitivity in strings defined in [RFC7405].
// §
// §  1.2.1.  Imported Rules
// §
// §       HTTP-date     = <HTTP-date, see [HTTP], Section 5.6.7>
// §       OWS           = <OWS, see [HTTP], Section 5.6.3>
// §       field-name    = <field-name, see [HTTP], Section 5.1>
// §       quoted-string = <quoted-string, see [HTTP], Section 5.6.4>
// §       token         = <token, see [HTTP], Section 5.6.2>

// §  1.2.2. Delta Seconds
// §
// §  The delta-seconds rule specifies a non-negative integer, representing time
// §  in seconds.
// §
// §      delta-seconds  = 1*DIGIT
// §
// §  A recipient parsing a delta-seconds value and converting it to binary form
// §  ought to use an arithmetic type of at least 31 bits of non-negative integer
// §  range. If a cache receives a delta-seconds value greater than the greatest
// §  integer it can represent, or if any of its subsequent calculations overflows,
// §  the cache MUST consider the value to be 2147483648 (2^31) or the greatest
// §  positive integer it can conveniently represent.
func deltaSeconds(secondsStr string) (time.Duration, error) {
	seconds, err := strconv.ParseUint(strings.TrimSpace(secondsStr), 10, 64)
	if err != nil {
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return maxDeltaSeconds, nil
		}
		return 0, err
	}
	if seconds > 1<<31 {
		return maxDeltaSeconds, nil
	}
	return time.Second * time.Duration(seconds), nil
}

const maxDeltaSeconds = time.Second * (1 << 31)

// HttpDate parses an HTTP-date (RFC 9110 §5.6.7): the preferred IMF-fixdate
// format, or one of the two obsolete formats.
func HttpDate(dateStr string) (time.Time, error) {
	if date, err := imfDate(dateStr); err == nil {
		return date, err
	} else {
		// try to parse as obsolete date
		if date, err := obsDate(dateStr); err == nil {
			return date, err
		}
		// return original error if unsuccessful
		return date, err
	}
}

// ToHttpDate formats t as an IMF-fixdate.
func ToHttpDate(t time.Time) string {
	return t.UTC().Format(http1123)
}

const (
	imfDateLayout = "Mon, 02 Jan 2006 15:04:05 MST"
	http1123      = "Mon, 02 Jan 2006 15:04:05 GMT"
)

func imfDate(dateStr string) (time.Time, error) {
	str := normalizeDateStr(dateStr)
	date, err := time.Parse(http1123, str)
	if err != nil {
		if _, zoneErr := time.Parse(imfDateLayout, str); zoneErr == nil {
			return date, fmt.Errorf("Date %s is not in GMT time", dateStr)
		}
	}
	return date, err
}

func obsDate(dateStr string) (time.Time, error) {
	str := normalizeDateStr(dateStr)
	if date, err := time.Parse(time.RFC850, str); err == nil {
		return date, err
	}
	return time.Parse(time.ANSIC, str)
}

// §  [...] a cache recipient SHOULD match the field value case-insensitively.
func normalizeDateStr(dateStr string) string {
	return strings.ToUpper(strings.TrimSpace(dateStr))
}
