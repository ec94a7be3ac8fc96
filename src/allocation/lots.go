package allocation

import (
	"errors"
	"strconv"
	"strings"
)

// ClampLots bounds n to [1, maxLots].
func ClampLots(n, maxLots int) int {
	if n < 1 {
		return 1
	}
	if n > maxLots {
		return maxLots
	}
	return n
}

// ParseLots reads the leading integer of raw ("7.9" -> 7, " 3 lots" -> 3) and
// clamps it. Anything without a leading integer becomes 1.
func ParseLots(raw string, maxLots int) int {
	s := strings.TrimSpace(raw)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 1
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Only a range error is possible here; saturate toward the sign.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && s[0] != '-' {
			return maxLots
		}
		return 1
	}
	return ClampLots(n, maxLots)
}
