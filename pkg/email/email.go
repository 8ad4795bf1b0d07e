package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"portfolio-backend/internal/domain"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by a sender missing credentials.
var ErrNotConfigured = errors.New("email service is not configured")

// Message is one outgoing email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers a message. Implementations: SMTP, SendGrid.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds SMTP relay credentials (e.g. Brevo).
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string // Verified sender; defaults to Username
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends emails via an SMTP relay
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

// IsConfigured checks if the sender has valid SMTP configuration
func (s *SMTPSender) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != ""
}

// Send ignores ctx: net/smtp has no context support.
func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	contentType := "text/plain"
	body := msg.Text
	if msg.HTML != "" {
		contentType = "text/html"
		body = msg.HTML
	}

	// Construct MIME message
	var raw bytes.Buffer
	fmt.Fprintf(&raw, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&raw, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&raw, "Reply-To: %s\r\n", headerSafe(msg.ReplyTo))
	}
	fmt.Fprintf(&raw, "Subject: %s\r\n", headerSafe(msg.Subject))
	raw.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&raw, "Content-Type: %s; charset=UTF-8\r\n\r\n", contentType)
	raw.WriteString(crlf(body))

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	if err := s.sendMail(addr, auth, s.cfg.From, []string{msg.To}, raw.Bytes()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides https://api.sendgrid.com
	Host string
}

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridSender(cfg SendGridConfig) *SendGridSender {
	if cfg.FromName == "" {
		cfg.FromName = "Portfolio Contact Form"
	}
	s := &SendGridSender{fromEmail: cfg.FromEmail, fromName: cfg.FromName}
	if cfg.APIKey != "" {
		req := sendgrid.GetRequest(cfg.APIKey, "/v3/mail/send", cfg.Host)
		req.Method = "POST"
		s.client = &sendgrid.Client{Request: req}
	}
	return s
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if s.client == nil {
		return ErrNotConfigured
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	text := msg.Text
	if text == "" {
		text = msg.HTML
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, text, msg.HTML)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// contactEmailTemplate is the HTML template for contact form emails
const contactEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .label { font-weight: bold; color: #555; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #0066cc; margin-top: 10px; white-space: pre-wrap; }
        .footer { color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>New Contact Form Submission</h1>
        <p><span class="label">From:</span> {{.Name}} ({{.Email}})</p>
        <p><span class="label">Received:</span> {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>
        <div class="label">Message:</div>
        <div class="message-box">{{.Message}}</div>
        <p class="footer">Submission {{.ID}}. Reply to this email to answer {{.Email}}.</p>
    </div>
</body>
</html>`

var contactTmpl = template.Must(template.New("contact").Parse(contactEmailTemplate))

// ContactNotifier emails the site owner about stored submissions.
type ContactNotifier struct {
	sender Sender
	to     string
	logger *zap.Logger
}

// NewContactNotifier returns a notifier delivering to the owner address. An empty
// address makes NotifySubmission a no-op.
func NewContactNotifier(sender Sender, to string, logger *zap.Logger) *ContactNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactNotifier{sender: sender, to: to, logger: logger}
}

// NotifySubmission implements domain.ContactNotifier.
func (n *ContactNotifier) NotifySubmission(ctx context.Context, record *domain.SubmissionRecord) error {
	if n.to == "" || n.sender == nil {
		return nil
	}

	var body bytes.Buffer
	if err := contactTmpl.Execute(&body, record); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := Message{
		To:      n.to,
		ReplyTo: record.Email,
		Subject: fmt.Sprintf("Contact Form: %s", record.Name),
		Text:    fmt.Sprintf("From: %s <%s>\n\n%s", record.Name, record.Email, record.Message),
		HTML:    body.String(),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return err
	}

	n.logger.Info("Contact notification sent", zap.String("submission_id", record.ID))
	return nil
}

// crlf normalizes line endings to CRLF as SMTP requires.
func crlf(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// headerSafe strips CR/LF so user input cannot inject extra headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
