package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"curriculum-rag-be/internal/entity"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendIngestionReport(toEmail string, run *entity.IngestionRun) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

var reportTemplate = template.Must(template.New("report").Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
	<h2>Curriculum ingestion {{if .Success}}finished{{else}}failed{{end}}</h2>
	<p>Started {{.StartedAt.Format "2006-01-02 15:04:05 MST"}}, finished {{.FinishedAt.Format "15:04:05"}}.</p>
	{{if .Error}}<p style="color: #c62828;">{{.Error}}</p>{{end}}
	<table cellpadding="6" style="border-collapse: collapse;">
		<tr><th align="left">Document</th><th align="left">State</th><th align="left">Chunks</th><th align="left">Reason</th></tr>
		{{range .Documents}}
		<tr><td>{{.Name}}</td><td>{{.State}}</td><td>{{.StoredChunks}}/{{.TotalChunks}}</td><td>{{.Reason}}</td></tr>
		{{end}}
	</table>
</div>
`))

// RenderIngestionReport returns the subject and HTML body of a run summary.
func RenderIngestionReport(run *entity.IngestionRun) (string, string, error) {
	var body bytes.Buffer
	if err := reportTemplate.Execute(&body, run); err != nil {
		return "", "", err
	}

	counts := map[entity.DocumentState]int{}
	for _, d := range run.Documents {
		counts[d.State]++
	}
	subject := fmt.Sprintf("Curriculum ingestion: %d done, %d skipped, %d failed",
		counts[entity.DocumentDone], counts[entity.DocumentSkipped], counts[entity.DocumentFailed])
	if !run.Success {
		subject = "Curriculum ingestion failed"
	}
	return subject, body.String(), nil
}

func (s *emailService) SendIngestionReport(toEmail string, run *entity.IngestionRun) error {
	subject, body, err := RenderIngestionReport(run)
	if err != nil {
		return fmt.Errorf("render ingestion report: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send ingestion report to %s: %w", toEmail, err)
	}
	return nil
}
