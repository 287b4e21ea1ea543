package notifier

import "github.com/memphis-pe/oc-api/internal/domain"

const (
	eventType = "oc_event"

	// Delivery hints shared by every OC notification.
	messageTTLSeconds = 3600
	urgencyHigh       = "high"
	priorityHigh      = "high"
	soundDefault      = "default"
	iconPath          = "/icons/oc-192.png"
)

// BuildMessage assembles the per-token payload for one OC event. Title and
// body are duplicated into the data block for clients that read metadata
// instead of the visible notification. Pure function.
func BuildMessage(token, orderID, title, body, webBaseURL string) domain.PushMessage {
	return domain.PushMessage{
		Token: token,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"tipo":   eventType,
			"ocId":   orderID,
			"titulo": title,
			"cuerpo": body,
		},
		Web: domain.WebHints{
			Urgency: urgencyHigh,
			TTL:     messageTTLSeconds,
			Icon:    iconPath,
			Link:    webBaseURL + "/oc/" + orderID,
		},
		Mobile: domain.MobileHints{
			Priority: priorityHigh,
			Sound:    soundDefault,
		},
	}
}
