// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool

	// FrontendURL is the dashboard base used in links
	FrontendURL string
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Email represents an email message
type Email struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	HTMLBody string
}

const layoutHead = `
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #7c2d12; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #fafaf9; padding: 24px; border-radius: 0 0 8px 8px; }
        .card { background: white; border-radius: 8px; padding: 16px 20px; margin: 16px 0; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
        .btn { display: inline-block; background: #7c2d12; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #78716c; text-align: center; }
        td { padding: 4px 12px 4px 0; }
    </style>
</head>
<body>
<div class="container">`

const layoutFoot = `
    <div class="footer">Kayapalat • Referral Partner Programme</div>
</div>
</body>
</html>`

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {
	// Sent to the referral agent when one of their leads is booked
	s.templates["lead_booked"] = template.Must(template.New("lead_booked").Parse(layoutHead + `
    <div class="header">
        <h2>🎉 Your referral has booked</h2>
    </div>
    <div class="content">
        <p>Hi {{.AgentName}},</p>
        <p>Good news: <strong>{{.ClientName}}</strong> ({{.LeadID}}) has confirmed a booking with us.</p>
        <div class="card">
            <table>
                {{if .BookingID}}<tr><td>Booking ID</td><td><strong>{{.BookingID}}</strong></td></tr>{{end}}
                {{if .BookingDate}}<tr><td>Booked on</td><td>{{.BookingDate}}</td></tr>{{end}}
                {{if .ProjectValue}}<tr><td>Project value</td><td>₹ {{.ProjectValue}}</td></tr>{{end}}
                {{if .AgentShare}}<tr><td>Your share</td><td><strong>₹ {{.AgentShare}}</strong></td></tr>{{end}}
            </table>
        </div>
        <a href="{{.DashboardURL}}" class="btn">Open dashboard</a>
    </div>` + layoutFoot))

	// Daily digest for admins listing leads whose booking window ran out
	s.templates["booking_windows_elapsed"] = template.Must(template.New("booking_windows_elapsed").Parse(layoutHead + `
    <div class="header">
        <h2>⏰ Booking windows elapsed</h2>
    </div>
    <div class="content">
        <p>The following {{len .Leads}} lead(s) passed their expected booking window without booking:</p>
        <div class="card">
            <table>
                <tr><td><strong>Lead</strong></td><td><strong>Client</strong></td><td><strong>Agent</strong></td><td><strong>Deadline</strong></td></tr>
                {{range .Leads}}<tr><td>{{.LeadID}}</td><td>{{.ClientName}}</td><td>{{.AgentName}}</td><td>{{.Deadline}}</td></tr>
                {{end}}
            </table>
        </div>
        <a href="{{.DashboardURL}}" class="btn">Review leads</a>
    </div>` + layoutFoot))
}

// Send sends an email
func (s *Service) Send(email *Email) error {
	if s.config.Host == "" {
		log.Printf("[Email] SMTP not configured, skipping %q to %s", email.Subject, strings.Join(email.To, ", "))
		return nil
	}

	var msg bytes.Buffer

	// Headers
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	if len(email.CC) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(email.CC, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.Body)
	}

	recipients := append([]string{}, email.To...)
	recipients = append(recipients, email.CC...)
	recipients = append(recipients, email.BCC...)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if !s.config.UseTLS {
		return smtp.SendMail(addr, auth, s.config.From, recipients, msg.Bytes())
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("TLS dial error: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("SMTP client error: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("auth error: %w", err)
	}
	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("mail error: %w", err)
	}
	for _, rcpt := range recipients {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt error: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data error: %w", err)
	}
	if _, err = w.Write(msg.Bytes()); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	return client.Quit()
}

// Render executes a named template.
func (s *Service) Render(templateName string, data interface{}) (string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

// SendWithTemplate sends an email using a template
func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	body, err := s.Render(templateName, data)
	if err != nil {
		return err
	}
	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: body,
	})
}

// ============================================
// Convenience Methods
// ============================================

// LeadBookedData holds data for the lead booked email
type LeadBookedData struct {
	AgentName    string
	ClientName   string
	LeadID       string
	BookingID    string
	BookingDate  string
	ProjectValue string
	AgentShare   string
	DashboardURL string
}

// SendLeadBooked tells an agent that their lead booked
func (s *Service) SendLeadBooked(to string, data LeadBookedData) error {
	if data.DashboardURL == "" {
		data.DashboardURL = s.config.FrontendURL + "/referral/dashboard"
	}
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[Kayapalat] %s has booked", data.ClientName),
		"lead_booked",
		data,
	)
}

// ElapsedLead is one row of the booking window digest
type ElapsedLead struct {
	LeadID     string
	ClientName string
	AgentName  string
	Deadline   string
}

// BookingWindowsData holds data for the booking window digest
type BookingWindowsData struct {
	Leads        []ElapsedLead
	DashboardURL string
}

// SendBookingWindowsElapsed sends the daily digest to admins
func (s *Service) SendBookingWindowsElapsed(to []string, data BookingWindowsData) error {
	if len(to) == 0 || len(data.Leads) == 0 {
		return nil
	}
	if data.DashboardURL == "" {
		data.DashboardURL = s.config.FrontendURL + "/admin/leads"
	}
	return s.SendWithTemplate(
		to,
		fmt.Sprintf("[Kayapalat] %d lead(s) missed their booking window", len(data.Leads)),
		"booking_windows_elapsed",
		data,
	)
}

// ============================================
// Async Email Queue (simple in-memory)
// ============================================

// EmailQueue sends emails on background workers so request handlers never
// wait on SMTP.
type EmailQueue struct {
	service *Service
	queue   chan *queuedEmail
	done    chan struct{}
}

type queuedEmail struct {
	to           []string
	subject      string
	templateName string
	data         interface{}
	retries      int
}

// NewEmailQueue creates a new email queue
func NewEmailQueue(service *Service, workers int) *EmailQueue {
	q := &EmailQueue{
		service: service,
		queue:   make(chan *queuedEmail, 256),
		done:    make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

func (q *EmailQueue) worker() {
	for {
		select {
		case email := <-q.queue:
			err := q.service.SendWithTemplate(email.to, email.subject, email.templateName, email.data)
			if err == nil {
				continue
			}
			log.Printf("[Email] Send error (%s, attempt %d): %v", email.templateName, email.retries+1, err)
			if email.retries < 3 {
				email.retries++
				time.Sleep(time.Second * time.Duration(email.retries*2))
				q.push(email)
			}
		case <-q.done:
			return
		}
	}
}

func (q *EmailQueue) push(email *queuedEmail) {
	select {
	case q.queue <- email:
	default:
		log.Printf("[Email] Queue full, dropping %q", email.subject)
	}
}

// Enqueue adds an email to the queue
func (q *EmailQueue) Enqueue(to []string, subject, templateName string, data interface{}) {
	q.push(&queuedEmail{
		to:           to,
		subject:      subject,
		templateName: templateName,
		data:         data,
	})
}

// SendLeadBooked queues the lead booked email
func (q *EmailQueue) SendLeadBooked(to string, data LeadBookedData) {
	if data.DashboardURL == "" {
		data.DashboardURL = q.service.config.FrontendURL + "/referral/dashboard"
	}
	q.Enqueue([]string{to}, fmt.Sprintf("[Kayapalat] %s has booked", data.ClientName), "lead_booked", data)
}

// SendBookingWindowsElapsed queues the admin digest
func (q *EmailQueue) SendBookingWindowsElapsed(to []string, data BookingWindowsData) {
	if len(to) == 0 || len(data.Leads) == 0 {
		return
	}
	if data.DashboardURL == "" {
		data.DashboardURL = q.service.config.FrontendURL + "/admin/leads"
	}
	q.Enqueue(to, fmt.Sprintf("[Kayapalat] %d lead(s) missed their booking window", len(data.Leads)), "booking_windows_elapsed", data)
}

// Stop stops the email queue workers
func (q *EmailQueue) Stop() {
	close(q.done)
}
