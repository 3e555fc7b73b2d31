package alert

import (
	"fmt"
	"time"
)

// DownMessage builds the downtime notification for one monitor.
func DownMessage(to, url, dashboardURL string, at time.Time) Message {
	return Message{
		To:      to,
		Subject: "Website is Down | Upmon",
		Text:    fmt.Sprintf("Upmon Monitor Alert: %s appears to be DOWN as of %s.", url, at.UTC().Format(time.RFC3339)),
		HTML:    downHTML(url, dashboardURL, at),
	}
}

func downHTML(url, dashboardURL string, at time.Time) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Website Status Notification</title>
  <style>
    body { font-family: Helvetica, Arial, sans-serif; background-color: #FAFAFA; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 40px auto; background: #FFFFFF; padding: 30px; border-radius: 8px; box-shadow: 0 2px 8px rgba(0, 0, 0, 0.05); }
    h1 { font-size: 32px; color: #333; margin-bottom: 20px; }
    p { font-size: 16px; color: #555; line-height: 1.5; }
    .button { display: inline-block; margin-top: 20px; padding: 12px 24px; background-color: #333333; color: #FFFFFF; text-decoration: none; border-radius: 6px; font-size: 18px; }
    .footer { text-align: center; margin-top: 25px; font-size: 12px; color: #999; }
  </style>
</head>
<body>
<div class="container">
  <h1 style="text-align: center;">Website Status Alert</h1>
  <p style="text-align: center;">We have detected that <strong>%s</strong> is currently <span style="color: red; font-weight: bold;">unreachable</span> as of <strong>%s</strong>.</p>
  <p style="text-align: center;">If this notification does not concern you, feel free to disregard it.</p>
  <div style="text-align: center;">
    <a href="%s" class="button">View Uptime History</a>
  </div>
</div>
<div class="footer">
  &copy; 2026 Upmon. All rights reserved.
</div>
</body>
</html>`, url, at.UTC().Format(time.RFC1123), dashboardURL)
}
