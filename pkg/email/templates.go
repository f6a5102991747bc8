package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// NotificationEmail carries the variables of the notification email body.
type NotificationEmail struct {
	Title      string
	Message    string
	Type       string
	Severity   string
	SenderName string
	Timestamp  time.Time
}

var severityIcons = map[string]string{
	"low":      "ℹ️",
	"medium":   "⚠️",
	"high":     "🔶",
	"critical": "🚨",
}

// Subject builds the email subject line with the severity icon prefix.
func (n NotificationEmail) Subject() string {
	icon, ok := severityIcons[n.Severity]
	if !ok {
		icon = severityIcons["medium"]
	}
	return fmt.Sprintf("%s %s", icon, n.Title)
}

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 8px; overflow: hidden;">
    <div style="background: #1f2937; padding: 24px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px;">{{.Title}}</h1>
      <p style="color: #9ca3af; margin: 8px 0 0;">Severity: {{.Severity}}</p>
    </div>
    <div style="padding: 24px;">
      <p style="font-size: 16px; color: #111827;">{{.Message}}</p>
      <hr style="border: none; border-top: 1px solid #e5e7eb;">
      <p style="font-size: 13px; color: #6b7280;">
        Sent by {{.SenderName}} at {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}
      </p>
    </div>
  </div>
</body>
</html>`))

// RenderNotification renders the HTML body for a notification email.
func RenderNotification(data NotificationEmail) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render notification template: %w", err)
	}
	return buf.String(), nil
}
