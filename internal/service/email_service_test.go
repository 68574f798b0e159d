package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"readingquest/internal/models"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabledWithoutAddresses(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", "parent@example.com", false)
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Error("service enabled without a sender")
	}
	if err := svc.NotifyJournalEntry(context.Background(), models.JournalEntry{}); err != nil {
		t.Errorf("disabled NotifyJournalEntry() error = %v", err)
	}
}

func TestEmailServiceDisabledWithInvalidAddress(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "quest@example.com", "", "not-an-address", false)
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	if svc.IsEnabled() {
		t.Error("service enabled with an invalid parent address")
	}
}

func TestNotifyJournalEntry(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailServiceWithClient(ses, "quest@example.com", "Reading Quest", "parent@example.com", false)

	entry := models.JournalEntry{
		Date:       "3/7/2026",
		Question1:  JournalQuestion1,
		Answer1:    "The <dragon>",
		Question2:  JournalQuestion2,
		Answer2:    "Big words",
		Reflection: "Celine, wonderful!",
	}
	if err := svc.NotifyJournalEntry(context.Background(), entry); err != nil {
		t.Fatalf("NotifyJournalEntry() error = %v", err)
	}

	if len(ses.inputs) != 1 {
		t.Fatalf("sent %d emails, want 1", len(ses.inputs))
	}
	in := ses.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "Reading Quest <quest@example.com>" {
		t.Errorf("from = %q", got)
	}
	if in.Destination.ToAddresses[0] != "parent@example.com" {
		t.Errorf("to = %v", in.Destination.ToAddresses)
	}
	htmlBody := aws.ToString(in.Content.Simple.Body.Html.Data)
	if !strings.Contains(htmlBody, "The &lt;dragon&gt;") {
		t.Error("answers are not escaped in the HTML body")
	}
	textBody := aws.ToString(in.Content.Simple.Body.Text.Data)
	if !strings.Contains(textBody, "Celine, wonderful!") {
		t.Error("reflection missing from text body")
	}
}

func TestNotifyJournalEntrySendFailure(t *testing.T) {
	boom := errors.New("throttled")
	svc := newEmailServiceWithClient(&fakeSES{err: boom}, "quest@example.com", "", "parent@example.com", false)

	err := svc.NotifyJournalEntry(context.Background(), models.JournalEntry{Date: "1/1/2026"})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}
