package issuance

import (
	"bytes"
	"fmt"
	"html/template"
)

type EmailData struct {
	EventName    string
	CustomerName string
	TierName     string
	Quantity     int
	StartsAt     string
	Location     string
	PrimaryColor string
}

var ticketEmail = template.Must(template.New("ticket").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #111827;">
  <div style="background: {{.PrimaryColor}}; color: #ffffff; padding: 24px;">
    <h1 style="margin: 0;">{{.EventName}}</h1>
  </div>
  <div style="padding: 24px;">
    <p>Hi {{.CustomerName}},</p>
    <p>Your ticket is attached to this e-mail. Show the QR code at the entrance.</p>
    <table>
      <tr><td><strong>Ticket</strong></td><td>{{.TierName}} &times; {{.Quantity}}</td></tr>
      {{- if .StartsAt}}
      <tr><td><strong>Date</strong></td><td>{{.StartsAt}}</td></tr>
      {{- end}}
      {{- if .Location}}
      <tr><td><strong>Location</strong></td><td>{{.Location}}</td></tr>
      {{- end}}
    </table>
  </div>
</body>
</html>
`))

func RenderTicketEmail(data EmailData) (string, error) {
	if c, ok := parseHexColor(data.PrimaryColor); ok {
		data.PrimaryColor = fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
	} else {
		data.PrimaryColor = "#111827"
	}
	var buf bytes.Buffer
	if err := ticketEmail.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
