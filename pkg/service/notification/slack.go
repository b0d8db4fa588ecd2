package notification

import (
	"context"
	"fmt"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/slack-go/slack"
)

// SlackSink posts notifications to a Slack incoming webhook
type SlackSink struct {
	webhookURL string
	kinds      []Type
}

// NewSlackSink creates a sink forwarding notifications of the given types.
// Errors and warnings are forwarded when no type is given.
func NewSlackSink(webhookURL string, kinds ...Type) *SlackSink {
	if len(kinds) == 0 {
		kinds = []Type{TypeError, TypeWarning}
	}
	return &SlackSink{
		webhookURL: webhookURL,
		kinds:      kinds,
	}
}

func (x *SlackSink) Send(ctx context.Context, userID types.UserID, n Notification) error {
	if !slices.Contains(x.kinds, n.Type) {
		return nil
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("[%s] %s", n.Type, n.Message),
		Blocks: &slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject(slack.MarkdownType, emoji(n.Type)+" "+n.Message, false, false),
					nil, nil,
				),
				slack.NewContextBlock("",
					slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("user: `%s`", userID), false, false),
				),
			},
		},
	}

	if err := slack.PostWebhookContext(ctx, x.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post notification to slack", goerr.V("type", n.Type))
	}
	return nil
}

func emoji(t Type) string {
	switch t {
	case TypeSuccess:
		return ":white_check_mark:"
	case TypeError:
		return ":x:"
	case TypeWarning:
		return ":warning:"
	default:
		return ":information_source:"
	}
}
