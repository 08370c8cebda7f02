package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
)

// StartupNotifier posts one message when the service comes up, listing the
// configured providers.
type StartupNotifier struct {
	providers    []types.Provider
	slack        *SlackService
	logger       *logrus.Logger
	initialDelay time.Duration
}

func NewStartupNotifier(providers []types.Provider, slack *SlackService, logger *logrus.Logger) *StartupNotifier {
	return &StartupNotifier{
		providers:    providers,
		slack:        slack,
		logger:       logger,
		initialDelay: 5 * time.Second,
	}
}

func (n *StartupNotifier) NotifyStartup() error {
	time.Sleep(n.initialDelay)

	names := make([]string, 0, len(n.providers))
	for _, p := range n.providers {
		names = append(names, p.Name)
	}
	n.logger.Infof("Service started with %d providers: %s", len(names), strings.Join(names, ", "))

	if n.slack == nil {
		return nil
	}

	message := SlackMessage{
		Text: "🚀 QuantumChain API started",
		Attachments: []Attachment{
			{
				Color: "#36a64f",
				Fields: []Field{
					{
						Title: "Providers",
						Value: strings.Join(names, ", "),
						Short: false,
					},
					{
						Title: "Count",
						Value: fmt.Sprintf("%d", len(names)),
						Short: true,
					},
				},
				Ts: time.Now().Unix(),
			},
		},
	}

	return n.slack.SendSlackMessage(&message)
}
