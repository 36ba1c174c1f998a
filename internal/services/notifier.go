package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/agencyloop/agencyloop-backend/internal/logger"
	"github.com/agencyloop/agencyloop-backend/internal/types"
	"github.com/agencyloop/agencyloop-backend/internal/utils"
)

// Notifier sends transactional email to org members. Implementations
// must tolerate empty recipient lists.
type Notifier interface {
	OnboardingCompleted(ctx context.Context, org *types.Org, emails []string) error
	ReportPublished(ctx context.Context, org *types.Org, report *types.Report, emails []string) error
	MemberInvited(ctx context.Context, org *types.Org, email string) error
}

type emailNotifier struct {
	client *resend.Client
	from   string
	log    *logger.Logger
}

// NewEmailNotifier returns a Notifier backed by Resend. When
// RESEND_API_KEY is unset the notifier is a no-op so local stacks run
// without email credentials.
func NewEmailNotifier(log *logger.Logger) Notifier {
	notifierLog := log.With("service", "EmailNotifier")
	apiKey := utils.GetEnv("RESEND_API_KEY", "", log)
	if apiKey == "" {
		notifierLog.Warn("RESEND_API_KEY not set, email notifications disabled")
		return &emailNotifier{client: nil, log: notifierLog}
	}
	from := utils.GetEnv("EMAIL_FROM", "AgencyLoop <noreply@agencyloop.io>", log)
	return &emailNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		log:    notifierLog,
	}
}

func (n *emailNotifier) send(ctx context.Context, to []string, subject, html string) error {
	if n.client == nil || len(to) == 0 {
		return nil
	}
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      to,
		Subject: subject,
		Html:    html,
	}
	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	n.log.Info("Email sent", "email_id", sent.Id, "subject", subject, "recipients", len(to))
	return nil
}

func (n *emailNotifier) OnboardingCompleted(ctx context.Context, org *types.Org, emails []string) error {
	if org == nil {
		return nil
	}
	subject := fmt.Sprintf("%s finished onboarding", org.Name)
	var b strings.Builder
	b.WriteString("<h2>Onboarding complete</h2>")
	fmt.Fprintf(&b, "<p>Every onboarding step for <strong>%s</strong> has been completed.</p>", org.Name)
	b.WriteString("<p>The client workspace is now fully set up.</p>")
	return n.send(ctx, emails, subject, b.String())
}

func (n *emailNotifier) ReportPublished(ctx context.Context, org *types.Org, report *types.Report, emails []string) error {
	if org == nil || report == nil {
		return nil
	}
	subject := fmt.Sprintf("New report for %s: %s", org.Name, report.Title)
	var b strings.Builder
	b.WriteString("<h2>A new report is ready</h2>")
	fmt.Fprintf(&b, "<p><strong>%s</strong></p>", report.Title)
	fmt.Fprintf(&b, "<p>Covering %s through %s.</p>",
		report.PeriodStart.Format("January 2, 2006"), report.PeriodEnd.Format("January 2, 2006"))
	b.WriteString("<p>Sign in to your workspace to view it.</p>")
	return n.send(ctx, emails, subject, b.String())
}

func (n *emailNotifier) MemberInvited(ctx context.Context, org *types.Org, email string) error {
	if org == nil || email == "" {
		return nil
	}
	subject := fmt.Sprintf("You've been added to %s", org.Name)
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Welcome to %s</h2>", org.Name)
	b.WriteString("<p>You now have access to the client workspace. Sign in with this email address to get started.</p>")
	return n.send(ctx, []string{email}, subject, b.String())
}
