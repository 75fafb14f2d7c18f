package utils

import (
	"strconv"
	"time"
)

// Official letter numbers render the month as a Roman numeral, per
// Indonesian administrative convention.
var romanMonths = []string{
	"I", "II", "III", "IV", "V", "VI",
	"VII", "VIII", "IX", "X", "XI", "XII",
}

var indonesianMonths = []string{
	"Januari",
	"Februari",
	"Maret",
	"April",
	"Mei",
	"Juni",
	"Juli",
	"Agustus",
	"September",
	"Oktober",
	"November",
	"Desember",
}

// RomanMonth returns the Roman numeral for a calendar month.
func RomanMonth(m time.Month) string {
	index := int(m) - 1
	if index < 0 || index >= len(romanMonths) {
		return ""
	}
	return romanMonths[index]
}

// MonthFromRoman resolves a Roman numeral I-XII back to a month. The second
// return value is false for anything outside that range.
func MonthFromRoman(s string) (time.Month, bool) {
	for i, roman := range romanMonths {
		if roman == s {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// FormatIndonesianDate returns the date written out with Indonesian month
// names, as used in letter bodies and notifications.
func FormatIndonesianDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	localTime := t.In(time.Local)
	monthIndex := int(localTime.Month()) - 1
	if monthIndex < 0 || monthIndex >= len(indonesianMonths) {
		return localTime.Format("02/01/2006")
	}

	return strconv.Itoa(localTime.Day()) + " " + indonesianMonths[monthIndex] + " " + strconv.Itoa(localTime.Year())
}

// FormatIndonesianDatePtr returns the formatted date for pointer values.
func FormatIndonesianDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatIndonesianDate(*t)
}
