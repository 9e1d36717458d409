package core

import (
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DayLayout is the calendar day format used on the wire and as grouping key.
const DayLayout = "2006-01-02"

var (
	NowFunc = time.Now // mockable

	ErrInvalidDate = errors.New("invalid date")
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Percentage returns round(part / total * 100), or 0 when total is 0.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Day truncates t to 00:00 UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar day in UTC.
func Today() time.Time {
	return Day(NowFunc())
}

// DayKey formats the calendar day of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay parses a `YYYY-MM-DD` date (RFC 3339 timestamps are accepted too) and returns its calendar day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Day(t), nil
}

// AcademicYear returns the "YYYY-YYYY" academic year starting in the year of t.
func AcademicYear(t time.Time) string {
	y := t.Year()
	return strconv.Itoa(y) + "-" + strconv.Itoa(y+1)
}

// Getwd tries to find the project root: the nearest parent directory holding a go.mod.
// go-test changes the working directory to the test package being run, so the root is searched upwards.
// Falls back to the working directory when no go.mod is found (e.g. deployed binaries).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
