package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitMessage(t *testing.T) {
	cases := []struct {
		name   string
		left   time.Duration
		action string
		want   string
	}{
		{"over_a_minute", 89500 * time.Millisecond, "updating", "Please wait 2 minutes before updating again."},
		{"under_a_minute", 42*time.Second + 100*time.Millisecond, "using AI tools", "Please wait 43 seconds before using AI tools again."},
		{"never_zero", 10 * time.Millisecond, "commenting", "Please wait 1 seconds before commenting again."},
		{"minutes", 4*time.Minute + time.Second, "commenting", "Please wait 5 minutes before commenting again."},
		{"hours", 23*time.Hour + 10*time.Minute, "editing your profile", "Please wait 24 hours before editing your profile again."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WaitMessage(tc.left, tc.action))
		})
	}
}

func TestKeys(t *testing.T) {
	c := &Cooldown{prefix: "lumina:cooldown"}
	assert.Equal(t, "lumina:cooldown:comment:42", c.key(ScopeComment, 42))
	assert.Equal(t, "blog:abc:summary", SuggestionKey("abc", "summary"))
}
