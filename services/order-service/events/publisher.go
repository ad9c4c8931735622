package events

import (
	"context"
	"encoding/json"
	"errors"

	awspkg "github.com/yashrajoria/multivendor-store/pkg/aws"
	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

type Publisher interface {
	Publish(ctx context.Context, evt models.OrderEvent) error
}

// SNSPublisher sends order events to one topic with an event_type attribute
// subscribers can filter on.
type SNSPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client awspkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.topicArn, data, map[string]string{
		"event_type": evt.Type,
		"status":     string(evt.Status),
	})
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt models.OrderEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
