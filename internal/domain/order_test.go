package domain

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewOrderCodeFormat(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	code := NewOrderCode(now)

	parts := strings.SplitN(code, "-", 2)
	require.Len(t, parts, 2)
	require.Equal(t, fmt.Sprintf("%x", now.Unix()), parts[0])
	require.Regexp(t, regexp.MustCompile(`^[0-9a-z]{8}$`), parts[1])
}

func TestNewOrderCodeSuffixVaries(t *testing.T) {
	now := time.Now()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[NewOrderCode(now)] = struct{}{}
	}

	// The same timestamp yields distinct codes through the random suffix.
	require.Greater(t, len(seen), 90)
}
