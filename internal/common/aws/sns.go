// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"agri-advisor/internal/catalog"
)

// Publisher is the subset of the SNS client used here.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes tool-server health alerts to one topic.
type SNSClient struct {
	client   Publisher
	topicARN string
	source   string
}

func NewSNSClient(ctx context.Context, region, topicARN, source string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewSNSClientFrom(sns.NewFromConfig(cfg), topicARN, source), nil
}

func NewSNSClientFrom(client Publisher, topicARN, source string) *SNSClient {
	return &SNSClient{client: client, topicARN: topicARN, source: source}
}

type healthAlert struct {
	Source    string `json:"source"`
	Slug      string `json:"slug"`
	Previous  string `json:"previous"`
	Current   string `json:"current"`
	Timestamp string `json:"timestamp"`
}

// PublishHealthAlert implements catalog.HealthAlerter.
func (s *SNSClient) PublishHealthAlert(ctx context.Context, slug string, previous, current catalog.HealthStatus) error {
	body, err := json.Marshal(healthAlert{
		Source:    s.source,
		Slug:      slug,
		Previous:  string(previous),
		Current:   string(current),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(s.topicARN),
		Subject:  awssdk.String(fmt.Sprintf("tool server %s is %s", slug, current)),
		Message:  awssdk.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
