package email

import (
	"fmt"
	"strings"
)

var kindColors = map[string]string{
	"info":       "#3b82f6",
	"success":    "#10b981",
	"warning":    "#f59e0b",
	"error":      "#ef4444",
	"assignment": "#8b5cf6",
	"deadline":   "#f59e0b",
}

var kindIcons = map[string]string{
	"info":       "ℹ️",
	"success":    "✅",
	"warning":    "⚠️",
	"error":      "❌",
	"assignment": "📋",
	"deadline":   "⏰",
}

// GenerateHTML renders the notification email body. Unknown kinds fall back
// to the info styling.
func GenerateHTML(subject, message, kind string) string {
	color, ok := kindColors[kind]
	if !ok {
		color = kindColors["info"]
	}
	icon, ok := kindIcons[kind]
	if !ok {
		icon = "🔔"
	}

	body := strings.ReplaceAll(message, "\n", "<br>")

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%[1]s</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
    <table width="100%%" cellpadding="0" cellspacing="0" style="background-color: #f3f4f6; padding: 20px;">
        <tr>
            <td align="center">
                <table width="600" cellpadding="0" cellspacing="0" style="background-color: #ffffff; border-radius: 8px; overflow: hidden;">
                    <tr>
                        <td style="background-color: %[2]s; padding: 20px; text-align: center;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 24px;">%[3]s Центр развития и тестирования</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px;">
                            <h2 style="margin: 0 0 20px 0; color: #1f2937; font-size: 20px;">%[1]s</h2>
                            <div style="color: #4b5563; font-size: 16px; line-height: 1.6;">%[4]s</div>
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f9fafb; padding: 20px; text-align: center; border-top: 1px solid #e5e7eb;">
                            <p style="margin: 0; color: #6b7280; font-size: 14px;">Это автоматическое уведомление. Не отвечайте на это письмо.</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`, subject, color, icon, body)
}
