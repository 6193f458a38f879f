package utils

import (
	"strconv"
)

// ParseDepositId parses a decimal deposit identifier.
func ParseDepositId(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
