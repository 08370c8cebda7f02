package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/quantumchain-labs/quantumchain/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type SlackService struct {
	logger     *logrus.Logger
	webhookURL string
	client     *http.Client
}

type SlackMessage struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	Color  string  `json:"color,omitempty"`
	Text   string  `json:"text,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Footer string  `json:"footer,omitempty"`
	Ts     int64   `json:"ts,omitempty"`
}

type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func NewSlackService(logger *logrus.Logger) (*SlackService, error) {
	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	if webhookURL == "" {
		return nil, fmt.Errorf("SLACK_WEBHOOK_URL environment variable is not set")
	}

	return &SlackService{
		logger:     logger,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// NotifyJobFinished posts the outcome of a terminal job. Satisfies the job
// store's Notifier interface.
func (s *SlackService) NotifyJobFinished(job *types.Job) error {
	color := "#36a64f"
	text := fmt.Sprintf("✅ Job Completed: %s", cases.Title(language.English).String(job.Type))
	if job.Status == types.StatusFailed {
		color = "#ff0000"
		text = fmt.Sprintf("❌ Job Failed: %s", cases.Title(language.English).String(job.Type))
	}

	fields := []Field{
		{
			Title: "Job ID",
			Value: job.ID,
			Short: true,
		},
		{
			Title: "Provider",
			Value: job.Provider,
			Short: true,
		},
		{
			Title: "Priority",
			Value: string(job.Priority),
			Short: true,
		},
		{
			Title: "Shots",
			Value: fmt.Sprintf("%d", job.Shots),
			Short: true,
		},
	}

	if job.Result != nil {
		fields = append(fields, Field{
			Title: "Fidelity",
			Value: fmt.Sprintf("%.3f", job.Result.Fidelity),
			Short: true,
		})
		fields = append(fields, Field{
			Title: "Most Frequent State",
			Value: job.Result.MostFrequent,
			Short: true,
		})
	}

	if job.Error != "" {
		fields = append(fields, Field{
			Title: "Error",
			Value: job.Error,
			Short: false,
		})
	}

	if job.StartedAt != nil && job.FinishedAt != nil {
		fields = append(fields, Field{
			Title: "Duration",
			Value: utils.FormatDuration(job.FinishedAt.Sub(*job.StartedAt)),
			Short: true,
		})
	}

	message := SlackMessage{
		Text: text,
		Attachments: []Attachment{
			{
				Color:  color,
				Fields: fields,
				Footer: fmt.Sprintf("Submitted: %s", job.SubmittedAt.Format("Mon, 02 Jan 2006 15:04:05 MST")),
				Ts:     time.Now().Unix(),
			},
		},
	}

	return s.SendSlackMessage(&message)
}

func (s *SlackService) SendSlackMessage(message *SlackMessage) error {
	if s.webhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	jsonMessage, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("error marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewBuffer(jsonMessage))
	if err != nil {
		return fmt.Errorf("error sending slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned non-200 status code: %d", resp.StatusCode)
	}

	s.logger.Infof("Successfully sent message to Slack")
	return nil
}
