// Package noderange expands compact node-range expressions such as
// "compute[1-100],login1" into node names.
package noderange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chenglch/xcat3client/pkg"
	"github.com/samber/lo"
)

// MaxRangeSize bounds the number of names a single bracketed range may
// produce.
const MaxRangeSize = 1 << 20

var (
	// ErrEmpty is wrapped by the error returned for an empty expression.
	ErrEmpty = errors.New("node list cannot be empty")
	// ErrRangeTooLarge is wrapped when a range exceeds MaxRangeSize names.
	ErrRangeTooLarge = fmt.Errorf("range expands to more than %d names", MaxRangeSize)
)

// Expand returns the unique node names denoted by a comma separated list of
// literal names and bracketed ranges (prefix[left-right]). Names keep the
// order of their first appearance. A range with left > right yields no
// names. Tokens with brackets that are not a complete range are used
// literally with the brackets removed.
func Expand(expr string) ([]string, error) {
	var (
		names  []string
		tokens int
	)
	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		tokens++

		expanded, err := expandToken(token)
		if err != nil {
			return nil, err
		}
		names = append(names, expanded...)
	}

	if tokens == 0 {
		return nil, pkg.NewInvalidArgument(expr, ErrEmpty)
	}

	return lo.Uniq(names), nil
}

func expandToken(token string) ([]string, error) {
	prefix, left, right, ok := splitRange(token)
	if !ok {
		return []string{strings.NewReplacer("[", "", "]", "").Replace(token)}, nil
	}

	l, err := parseBound(left)
	if err != nil {
		return nil, pkg.NewInvalidArgument(token, fmt.Errorf("invalid range start: %w", err))
	}
	r, err := parseBound(right)
	if err != nil {
		return nil, pkg.NewInvalidArgument(token, fmt.Errorf("invalid range end: %w", err))
	}

	if l > r {
		return []string{}, nil
	}
	if r-l >= MaxRangeSize {
		return nil, pkg.NewInvalidArgument(token, ErrRangeTooLarge)
	}

	names := make([]string, 0, r-l+1)
	for i := l; i <= r; i++ {
		names = append(names, prefix+strconv.Itoa(i))
	}
	return names, nil
}

// parseBound accepts unsigned decimal integers only.
func parseBound(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("%q is not a non-negative integer", s)
	}
	return strconv.Atoi(s)
}

// splitRange cuts token into prefix[left-right]. The '-' has to follow the
// first '[' and a ']' has to follow that '-'; anything after the ']' is
// ignored.
func splitRange(token string) (prefix, left, right string, ok bool) {
	open := strings.IndexByte(token, '[')
	if open < 0 {
		return
	}
	body := token[open+1:]
	if next := strings.IndexByte(body, '['); next >= 0 {
		body = body[:next]
	}

	dash := strings.IndexByte(body, '-')
	if dash < 0 {
		return
	}
	end := strings.IndexByte(body[dash+1:], ']')
	if end < 0 {
		return
	}

	return token[:open], body[:dash], body[dash+1 : dash+1+end], true
}
