package sns

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type publishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Publisher struct {
	client   publishAPI
	topicArn string
}

// NewPublisher loads the default AWS credential chain.
func NewPublisher(ctx context.Context, topicArn string) (*Publisher, error) {
	if topicArn == "" {
		return nil, errors.New("empty sns topic arn")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Publisher{client: sns.NewFromConfig(cfg), topicArn: topicArn}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"payment_id": {DataType: aws.String("String"), StringValue: aws.String(key)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish failed for topic %s: %w", p.topicArn, err)
	}
	return nil
}
