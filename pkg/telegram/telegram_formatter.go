package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-market-chat/pkg/utils"
)

const maxAlertDataLen = 512

// FormatErrorAlertMessage formats an operator alert for Telegram.
func FormatErrorAlertMessage(at time.Time, errType string, errMsg string, data string) string {
	if truncated := utils.TruncateRunes(data, maxAlertDataLen); truncated != data {
		data = truncated + "..."
	}
	return fmt.Sprintf(`📛 [ERROR ALERT]
%s
🔧 %s
⚠️ %s

📄 Data: %s
`, utils.PrettyDate(at), errType, escapeMarkdown(errMsg), escapeMarkdown(data))
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
