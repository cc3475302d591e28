package router

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxIDs bounds how many ids a single message may address, ranges included.
const MaxIDs = 500

var (
	ErrNoIDs      = errors.New("no candidate ids found")
	ErrTooManyIDs = fmt.Errorf("more than %d candidate ids", MaxIDs)
)

var (
	idSeparators = regexp.MustCompile(`\s*(?:,|;|&|\band\b|\s)\s*`)
	idRange      = regexp.MustCompile(`^#?(\d+)\s*(?:-|\.\.|to|through)\s*#?(\d+)$`)
	rangeSpacing = regexp.MustCompile(`(\d)\s*(-|\.\.|\bto\b|\bthrough\b)\s*(\d)`)
)

// ParseIDs reads lists such as "1,2,3", "1 2 3", "1, 2 and 3" or "1-5".
// Duplicates are dropped and order is kept. Any token that is not an id or
// a range fails the whole list.
func ParseIDs(s string) ([]int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ids")
	s = strings.TrimPrefix(s, "id")
	s = rangeSpacing.ReplaceAllString(s, "$1-$3")

	var ids []int
	seen := make(map[int]bool)
	add := func(id int) error {
		if seen[id] {
			return nil
		}
		if len(ids) == MaxIDs {
			return ErrTooManyIDs
		}
		seen[id] = true
		ids = append(ids, id)
		return nil
	}

	for _, tok := range idSeparators.Split(s, -1) {
		tok = strings.Trim(tok, ".:")
		if tok == "" {
			continue
		}
		if m := idRange.FindStringSubmatch(tok); m != nil {
			lo, lerr := strconv.Atoi(m[1])
			hi, herr := strconv.Atoi(m[2])
			if lerr != nil || herr != nil {
				return nil, fmt.Errorf("%q is not a candidate id range", tok)
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			if lo <= 0 {
				return nil, fmt.Errorf("%q is not a candidate id range", tok)
			}
			if hi-lo+1 > MaxIDs {
				return nil, ErrTooManyIDs
			}
			for id := lo; id <= hi; id++ {
				if err := add(id); err != nil {
					return nil, err
				}
			}
			continue
		}
		id, err := strconv.Atoi(strings.TrimPrefix(tok, "#"))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q is not a candidate id", tok)
		}
		if err := add(id); err != nil {
			return nil, err
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	return ids, nil
}
