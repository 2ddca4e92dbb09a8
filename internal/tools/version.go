package tools

import (
	"regexp"
	"strconv"
	"strings"
)

// Ordering is the result of comparing two version strings.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// Compare orders two dot-separated versions. See CompareDetail.
func Compare(a, b string) Ordering {
	o, _ := CompareDetail(a, b)
	return o
}

// CompareDetail compares dot-separated versions segment by segment, numerically,
// with missing trailing segments read as "0". The empty string sorts below any
// non-empty version. When a segment pair is not purely numeric the pair is
// compared as raw strings and ambiguous is true: "1.0rc1" against "1.0.1" may
// not order the way its author meant.
func CompareDetail(a, b string) (o Ordering, ambiguous bool) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == b:
		return Equal, false
	case a == "":
		return Less, false
	case b == "":
		return Greater, false
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		x, y := segment(as, i), segment(bs, i)
		xn, xerr := strconv.ParseUint(x, 10, 64)
		yn, yerr := strconv.ParseUint(y, 10, 64)
		if xerr == nil && yerr == nil {
			if xn != yn {
				return order(xn < yn), ambiguous
			}
			continue
		}
		ambiguous = true
		if x != y {
			return order(x < y), ambiguous
		}
	}
	return Equal, ambiguous
}

func segment(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}

func order(less bool) Ordering {
	if less {
		return Less
	}
	return Greater
}

var versionRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)+`)
var numberRe = regexp.MustCompile(`[0-9]+`)

// ParseVersion extracts the first dotted version number from a tool's
// --version output, looking at the first line before the rest.
func ParseVersion(output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return ""
	}
	line := firstLine(output)
	for _, text := range []string{line, output} {
		if m := versionRe.FindString(text); m != "" {
			return m
		}
	}
	return numberRe.FindString(line)
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
