package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"vocabflow/internal/models"
	"vocabflow/internal/presenter"
)

// sesAPI is the part of the SES client the service calls
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	logger     *slog.Logger
}

// NewEmailService creates a new email service. With no sender address the
// service is disabled and sends nothing.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, logger *slog.Logger) (*EmailService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fromEmail == "" {
		logger.Info("email service disabled: EMAIL_FROM not configured")
		return &EmailService{logger: logger}, nil
	}

	var opts []func(*config.LoadOptions) error
	if awsRegion != "" {
		opts = append(opts, config.WithRegion(awsRegion))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", "from", fromEmail, "region", cfg.Region)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, logger), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, logger *slog.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		enabled:    true,
		logger:     logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #4a90e2; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #4a90e2; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Your study progress</h1>
		</div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<p>You have learned <strong>{{.View.TotalWords}}</strong> words and mastered <strong>{{.View.MasteredCount}}</strong>.
			Current streak: <strong>{{.View.Streak}}</strong> days. Accuracy: <strong>{{.View.Accuracy}}%</strong>.</p>
			{{if .View.Days}}
			<table>
				<tr><th>Day</th><th>Correct</th><th>Total</th></tr>
				{{range .View.Days}}<tr><td>{{.Label}}</td><td>{{.Correct}}</td><td>{{.Total}}</td></tr>{{end}}
			</table>
			{{end}}
			{{if .View.NoMistakes}}
			<p>No mistakes to review. Well done!</p>
			{{else}}
			<p>Words to review:</p>
			<ul>
				{{range .View.MostWrong}}<li><strong>{{.Word}}</strong>: {{.Meaning}} ({{.Count}} misses)</li>{{end}}
			</ul>
			{{end}}
			<p style="text-align: center;">
				<a href="{{.DashboardURL}}" class="button">Open dashboard</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from vocabflow. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`))

// SendStatsDigest emails a summary of the user's stats
func (s *EmailService) SendStatsDigest(ctx context.Context, toEmail, toName string, stats models.Stats) error {
	if !s.enabled {
		s.logger.Info("skipping email send (service disabled)", "kind", "digest", "to", toEmail)
		return nil
	}
	if toName == "" {
		toName = "there"
	}

	view := presenter.Dashboard(stats)
	dashboardURL := s.appBaseURL + "/dashboard"

	var html bytes.Buffer
	if err := digestTemplate.Execute(&html, map[string]any{
		"Name":         toName,
		"View":         view,
		"DashboardURL": dashboardURL,
	}); err != nil {
		return fmt.Errorf("failed to render digest: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", toName)
	fmt.Fprintf(&text, "Words learned: %d\nMastered: %d\nStreak: %d days\nAccuracy: %d%%\n",
		view.TotalWords, view.MasteredCount, view.Streak, view.Accuracy)
	if len(view.Days) > 0 {
		text.WriteString("\nLast days (correct/total):\n")
		for _, d := range view.Days {
			fmt.Fprintf(&text, "  %s  %d/%d\n", d.Label, d.Correct, d.Total)
		}
	}
	if view.NoMistakes {
		text.WriteString("\nNo mistakes to review. Well done!\n")
	} else {
		text.WriteString("\nWords to review:\n")
		for _, w := range view.MostWrong {
			fmt.Fprintf(&text, "  %s: %s (%d misses)\n", w.Word, w.Meaning, w.Count)
		}
	}
	fmt.Fprintf(&text, "\nOpen dashboard: %s\n\n---\nThis is an automated email from vocabflow. Please do not reply.\n", dashboardURL)

	return s.sendEmail(ctx, toEmail, "Your vocabflow study progress", html.String(), text.String())
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
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
		s.logger.Debug("SES SendEmail failed", "to", toEmail, "error", err)
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.logger.Info("email sent", "to", toEmail, "subject", subject, "message_id", aws.ToString(result.MessageId))
	return nil
}
