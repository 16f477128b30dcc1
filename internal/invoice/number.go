package invoice

import (
	"fmt"
	"strconv"
	"strings"
)

// NextNumber returns the number following latest under prefix. A missing or
// unparsable latest number restarts the sequence at 1.
func NextNumber(prefix, latest string) string {
	seq := 0

	if rest, ok := strings.CutPrefix(latest, prefix); ok && rest != "" {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			seq = n
		}
	}

	return fmt.Sprintf("%s%05d", prefix, seq+1)
}
