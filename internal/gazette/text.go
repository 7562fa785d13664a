package gazette

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	swissDate     = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
)

// NormalizeSpace collapses whitespace runs into single spaces and trims.
func NormalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NormalizeSwissDate rewrites the first D.M.YYYY date in s to YYYY-MM-DD.
// Text without such a date is returned whitespace-normalized but otherwise
// unchanged.
func NormalizeSwissDate(s string) string {
	m := swissDate.FindStringSubmatch(s)
	if m == nil {
		return NormalizeSpace(s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
}
