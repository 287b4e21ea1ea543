package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/memphis-pe/oc-api/internal/config"
	"github.com/memphis-pe/oc-api/internal/domain"
)

// Sender delivers push messages through SNS mobile push. Stored tokens are
// platform-endpoint ARNs created by Register.
type Sender interface {
	Send(ctx context.Context, msg domain.PushMessage) error
	Register(ctx context.Context, deviceToken string) (endpointARN string, err error)
}

type sender struct {
	client         *sns.Client
	platformAppARN string
}

func NewSender(cfg *config.Config) (Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{
		client:         sns.NewFromConfig(awsCfg),
		platformAppARN: cfg.SNSPlatformAppARN,
	}, nil
}

// Register exchanges a raw device token for a platform-endpoint ARN.
func (s *sender) Register(ctx context.Context, deviceToken string) (string, error) {
	out, err := s.client.CreatePlatformEndpoint(ctx, &sns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(s.platformAppARN),
		Token:                  aws.String(deviceToken),
	})
	if err != nil {
		return "", fmt.Errorf("create platform endpoint: %w", err)
	}
	return aws.ToString(out.EndpointArn), nil
}

// Send publishes one message to the endpoint behind msg.Token. Failures whose
// provider code marks the endpoint as permanently gone are wrapped with
// domain.ErrTokenInvalid so the dispatcher can purge the registration.
func (s *sender) Send(ctx context.Context, msg domain.PushMessage) error {
	payload, err := buildPayload(msg)
	if err != nil {
		return fmt.Errorf("build push payload: %w", err)
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(msg.Token),
		Message:          aws.String(string(payload)),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		if isPermanent(err) {
			return fmt.Errorf("publish to %s: %v: %w", msg.Token, err, domain.ErrTokenInvalid)
		}
		return fmt.Errorf("publish to %s: %w", msg.Token, err)
	}
	return nil
}

// isPermanent reports whether the SNS error means the endpoint will never
// accept another message: disabled, deleted, or a malformed ARN. Everything
// else (throttling, timeouts, internal errors) is transient.
func isPermanent(err error) bool {
	var disabled *types.EndpointDisabledException
	var notFound *types.NotFoundException
	var invalid *types.InvalidParameterException
	return errors.As(err, &disabled) || errors.As(err, &notFound) || errors.As(err, &invalid)
}

// buildPayload renders the per-platform message bodies SNS fans out from.
func buildPayload(msg domain.PushMessage) ([]byte, error) {
	gcm, err := json.Marshal(map[string]interface{}{
		"notification": map[string]string{
			"title":        msg.Title,
			"body":         msg.Body,
			"icon":         msg.Web.Icon,
			"click_action": msg.Web.Link,
			"sound":        msg.Mobile.Sound,
		},
		"data":         msg.Data,
		"priority":     msg.Mobile.Priority,
		"time_to_live": msg.Web.TTL,
		"webpush": map[string]interface{}{
			"headers": map[string]string{
				"Urgency": msg.Web.Urgency,
				"TTL":     strconv.Itoa(msg.Web.TTL),
			},
		},
	})
	if err != nil {
		return nil, err
	}
	apns, err := json.Marshal(map[string]interface{}{
		"aps": map[string]interface{}{
			"alert": map[string]string{
				"title": msg.Title,
				"body":  msg.Body,
			},
			"sound": msg.Mobile.Sound,
		},
		"data": msg.Data,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{
		"default": msg.Body,
		"GCM":     string(gcm),
		"APNS":    string(apns),
	})
}
