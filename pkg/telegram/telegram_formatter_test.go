package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatErrorAlertMessage(t *testing.T) {
	at := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
	msg := FormatErrorAlertMessage(at, "upstream_completion", "status 503", "session_id=abc")

	assert.Contains(t, msg, "[ERROR ALERT]")
	assert.Contains(t, msg, "Thu, 15 Oct 2026 08:30:00 UTC")
	assert.Contains(t, msg, "upstream_completion")
	assert.Contains(t, msg, `session\_id=abc`)
}

func TestFormatErrorAlertMessage_TruncatesData(t *testing.T) {
	msg := FormatErrorAlertMessage(time.Now(), "t", "m", strings.Repeat("x", 2000))

	assert.Contains(t, msg, strings.Repeat("x", maxAlertDataLen)+"...")
	assert.NotContains(t, msg, strings.Repeat("x", maxAlertDataLen+1))
}
