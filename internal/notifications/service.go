package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/flowcrm/pain-radar/internal/config"
	"github.com/flowcrm/pain-radar/internal/models"
)

// Service sends scan reports via the configured channels. Channels that
// are not configured are skipped silently.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements Notifier
var _ Notifier = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendScanReport sends a scan outcome report via all configured channels.
func (s *Service) SendScanReport(keyword *models.Keyword, scan *models.Scan) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(keyword, scan); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(keyword, scan); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(keyword *models.Keyword, scan *models.Scan) error {
	message := s.buildTeamsMessage(keyword, scan)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(keyword *models.Keyword, scan *models.Scan) *TeamsMessage {
	title := fmt.Sprintf("Pain Radar scan %s - %q", strings.ToLower(string(scan.Status)), keyword.Text)

	facts := []TeamsFact{
		{Name: "Keyword", Value: keyword.Text},
		{Name: "Platform", Value: string(scan.Platform)},
		{Name: "Status", Value: string(scan.Status)},
		{Name: "Posts found", Value: fmt.Sprintf("%d", scan.PostsFound)},
		{Name: "New posts", Value: fmt.Sprintf("%d", scan.PostsNew)},
		{Name: "Posts analyzed", Value: fmt.Sprintf("%d", scan.PostsAnalyzed)},
	}
	if scan.ErrorMessage != "" {
		facts = append(facts, TeamsFact{Name: "Error", Value: scan.ErrorMessage})
	}

	return &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   title,
		Text:    fmt.Sprintf("Scan %s for keyword %q", strings.ToLower(string(scan.Status)), keyword.Text),
		Sections: []TeamsSection{
			{
				ActivityTitle: "Scan summary",
				Facts:         facts,
				Markdown:      true,
			},
		},
	}
}

func (s *Service) sendEmail(keyword *models.Keyword, scan *models.Scan) error {
	var body strings.Builder
	body.WriteString(fmt.Sprintf("<h2>Pain Radar scan %s</h2>", strings.ToLower(string(scan.Status))))
	body.WriteString(fmt.Sprintf("<p>Keyword: <b>%s</b> (%s)</p>", keyword.Text, scan.Platform))
	body.WriteString(fmt.Sprintf("<p>Posts found: %d, new: %d, analyzed: %d</p>",
		scan.PostsFound, scan.PostsNew, scan.PostsAnalyzed))
	if scan.ErrorMessage != "" {
		body.WriteString(fmt.Sprintf("<p>Error: %s</p>", scan.ErrorMessage))
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", fmt.Sprintf("Pain Radar scan %s: %s", strings.ToLower(string(scan.Status)), keyword.Text))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
