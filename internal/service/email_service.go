package service

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"readingquest/internal/models"
	"readingquest/internal/validation"
)

// sesSender is the part of the SES client the email service uses
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends journal entries to a parent via Amazon SES
type EmailService struct {
	client      sesSender
	fromEmail   string
	fromName    string
	parentEmail string
	enabled     bool
	debug       bool
}

// NewEmailService creates a new email service. It is disabled when either
// the sender or the parent address is missing.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, parentEmail string, debug bool) (*EmailService, error) {
	if fromEmail == "" || parentEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL or PARENT_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug}, nil
	}
	for _, addr := range []string{fromEmail, parentEmail} {
		if err := validation.ValidateEmail(addr); err != nil {
			log.Printf("Warning: email service disabled, %v (%q)", err, addr)
			return &EmailService{enabled: false, debug: debug}, nil
		}
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
		log.Printf("[DEBUG] Parent Email: %s", parentEmail)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return newEmailServiceWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName, parentEmail, debug), nil
}

func newEmailServiceWithClient(client sesSender, fromEmail, fromName, parentEmail string, debug bool) *EmailService {
	return &EmailService{
		client:      client,
		fromEmail:   fromEmail,
		fromName:    fromName,
		parentEmail: parentEmail,
		enabled:     true,
		debug:       debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifyJournalEntry emails a freshly written journal entry to the parent
func (s *EmailService) NotifyJournalEntry(ctx context.Context, entry models.JournalEntry) error {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Email service is disabled, journal entry from %s not sent", entry.Date)
		}
		return nil
	}

	subject := fmt.Sprintf("A new page in Celine's Royal Reading Journal (%s)", entry.Date)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #db2777; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #fdf2f8; padding: 30px; border-radius: 0 0 5px 5px; }
		.note { background-color: #fef9c3; border-left: 4px solid #facc15; padding: 10px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>A Quest Was Completed!</h1>
		</div>
		<div class="content">
			<p><strong>%s</strong></p>
			<p><strong>%s</strong><br>- %s</p>
			<p><strong>%s</strong><br>- %s</p>
			<p class="note">Journal's Note: "%s"</p>
		</div>
		<div class="footer">
			<p>This is an automated email from the Royal Reading Quest. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`,
		html.EscapeString(entry.Date),
		html.EscapeString(entry.Question1), html.EscapeString(entry.Answer1),
		html.EscapeString(entry.Question2), html.EscapeString(entry.Answer2),
		html.EscapeString(entry.Reflection))

	textBody := fmt.Sprintf(`%s

%s
- %s

%s
- %s

Journal's Note: "%s"

---
This is an automated email from the Royal Reading Quest. Please do not reply.
`, entry.Date, entry.Question1, entry.Answer1, entry.Question2, entry.Answer2, entry.Reflection)

	return s.sendEmail(ctx, s.parentEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s, to=%s, subject=%s", fromAddress, toEmail, subject)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] Message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
