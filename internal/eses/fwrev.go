package eses

import (
	"fmt"
	"strings"
)

// Revision is a firmware revision "MM.mm.pp".
type Revision struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

func (r Revision) String() string {
	return fmt.Sprintf("%02d.%02d.%02d", r.Major, r.Minor, r.Patch)
}

// Compare orders revisions by major, minor then patch.
func (r Revision) Compare(o Revision) int {
	switch {
	case r.Major != o.Major:
		return sign(r.Major - o.Major)
	case r.Minor != o.Minor:
		return sign(r.Minor - o.Minor)
	}
	return sign(r.Patch - o.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

const revBlankPrefix = 4

// ParseRevision reads a fixed-width revision with zero, one or two dots.
// Fields are at most two digits; blanks in the first four characters
// read as '0'. Any other dot count returns the zero Revision and
// ErrInvalidRevision.
func ParseRevision(s string) (Revision, error) {
	b := []byte(s)
	for i := 0; i < len(b) && i < revBlankPrefix; i++ {
		if b[i] == ' ' {
			b[i] = '0'
		}
	}
	s = string(b)

	var fields int
	switch strings.Count(s, ".") {
	case 0, 1:
		fields = 2
	case 2:
		fields = 3
	default:
		return Revision{}, fmt.Errorf("%w: %q has more than two dots", ErrInvalidRevision, s)
	}
	dotted := strings.Contains(s, ".")

	var vals [3]int
	pos := 0
	for f := 0; f < fields; f++ {
		if f > 0 && dotted {
			if pos >= len(s) || s[pos] != '.' {
				break
			}
			pos++
		}
		v, next, ok := scanField(s, pos)
		if !ok {
			if f == 0 {
				return Revision{}, fmt.Errorf("%w: %q", ErrInvalidRevision, s)
			}
			break
		}
		vals[f] = v
		pos = next
	}
	return Revision{Major: vals[0], Minor: vals[1], Patch: vals[2]}, nil
}

// scanField reads up to two digits at pos after optional blanks.
func scanField(s string, pos int) (int, int, bool) {
	for pos < len(s) && s[pos] == ' ' {
		pos++
	}
	v, n := 0, 0
	for pos < len(s) && n < 2 && s[pos] >= '0' && s[pos] <= '9' {
		v = v*10 + int(s[pos]-'0')
		pos++
		n++
	}
	return v, pos, n > 0
}

// AtLowerRevision reports whether rev is older than min.
func AtLowerRevision(rev, min string) (bool, error) {
	a, err := ParseRevision(rev)
	if err != nil {
		return false, err
	}
	b, err := ParseRevision(min)
	if err != nil {
		return false, err
	}
	return a.Compare(b) < 0, nil
}
