package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"path/filepath"
)

type EmailData struct {
	CourseName      string  `json:"course_name"`
	TopicName       string  `json:"topic_name"`
	TopicLink       string  `json:"topic_link"`
	AssignmentTitle string  `json:"assignment_title"`
	Score           int     `json:"score"`
	MaxScore        int     `json:"max_score"`
	Percentage      float64 `json:"percentage"`
	Feedback        string  `json:"feedback"`
	Content         string  `json:"content"`
}

type Sender interface {
	Send(to []string, subject string, tmpl string, data EmailData) error
}

type Mailer struct {
	Addr        string
	Host        string
	From        string
	Password    string
	TemplateDir string
}

// Enabled is false when no SMTP server is configured.
func (m *Mailer) Enabled() bool { return m != nil && m.Addr != "" }

func (m *Mailer) Send(to []string, subject, tmpl string, data EmailData) error {
	if !m.Enabled() {
		return nil
	}
	html, err := m.GenerateEmailHTML(tmpl, data)
	if err != nil {
		return err
	}
	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	headers := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";"
	message := "Subject: " + subject + "\n" + headers + "\n\n" + html
	return smtp.SendMail(m.Addr, auth, m.From, to, []byte(message))
}

func (m *Mailer) GenerateEmailHTML(name string, data EmailData) (string, error) {
	path := filepath.Join(m.TemplateDir, name)
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
