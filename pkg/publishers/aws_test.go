package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/samvad-hq/samvad-request/internal/domain"
)

// recordingAWS satisfies both sqsClient and snsClient and flattens what it
// received so the two senders can share assertions.
type recordingAWS struct {
	target string
	body   string
	attrs  map[string][2]string // name -> {data type, value}
	calls  int
	err    error
}

func (r *recordingAWS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	r.calls++
	r.target, r.body = aws.ToString(in.QueueUrl), aws.ToString(in.MessageBody)
	r.attrs = map[string][2]string{}
	for k, v := range in.MessageAttributes {
		r.attrs[k] = [2]string{aws.ToString(v.DataType), aws.ToString(v.StringValue)}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (r *recordingAWS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	r.calls++
	r.target, r.body = aws.ToString(in.TopicArn), aws.ToString(in.Message)
	r.attrs = map[string][2]string{}
	for k, v := range in.MessageAttributes {
		r.attrs[k] = [2]string{aws.ToString(v.DataType), aws.ToString(v.StringValue)}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestAWSSendersDeliverEvent(t *testing.T) {
	evt := Event{
		DefinitionID: "health",
		Exchange:     domain.Exchange{ID: "x1", StatusCode: 204, ContentKind: domain.ContentEmpty},
	}

	tests := []struct {
		name   string
		target string
		send   func(client *recordingAWS) sender
	}{
		{
			name:   "sqs",
			target: "https://sqs.local/queue",
			send: func(c *recordingAWS) sender {
				return &awsSQSSender{queueURL: "https://sqs.local/queue", client: c, log: ensureLogger(nil)}
			},
		},
		{
			name:   "sns",
			target: "arn:aws:sns:us-east-1:1:topic",
			send: func(c *recordingAWS) sender {
				return &awsSNSSender{topicARN: "arn:aws:sns:us-east-1:1:topic", client: c, log: ensureLogger(nil)}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &recordingAWS{}
			if err := tt.send(client).Send(context.Background(), evt); err != nil {
				t.Fatalf("Send: %v", err)
			}
			if client.calls != 1 || client.target != tt.target {
				t.Fatalf("calls=%d target=%q", client.calls, client.target)
			}
			if !strings.Contains(client.body, `"definition_id":"health"`) {
				t.Fatalf("body missing definition id: %s", client.body)
			}
			want := map[string][2]string{
				"definition_id": {"String", "health"},
				"content_kind":  {"String", domain.ContentEmpty},
				"status_code":   {"Number", "204"},
			}
			for name, w := range want {
				if got := client.attrs[name]; got != w {
					t.Errorf("attribute %s = %v, want %v", name, got, w)
				}
			}
		})

		t.Run(tt.name+" error", func(t *testing.T) {
			client := &recordingAWS{err: errors.New("throttled")}
			err := tt.send(client).Send(context.Background(), evt)
			if err == nil || !strings.Contains(err.Error(), "throttled") {
				t.Fatalf("expected wrapped client error, got %v", err)
			}
		})
	}
}

func TestEventAttributesSkipUnsetFields(t *testing.T) {
	attrs := eventAttributes(Event{DefinitionID: "d"})
	if len(attrs) != 1 || attrs[0].name != "definition_id" || attrs[0].dataType() != "String" {
		t.Fatalf("unexpected attributes %+v", attrs)
	}
}

func TestNewQueuePublishersWithStaticCredentials(t *testing.T) {
	creds := AWSCredentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}
	cfgs := []PublisherConfig{
		{ID: "queue", Type: TypeSQS, SQS: &SQSPublisherConfig{
			QueueURL: "https://sqs.us-east-1.amazonaws.com/123/q", Region: "us-east-1", AWSCredentials: creds,
		}},
		{ID: "topic", Type: TypeSNS, SNS: &SNSPublisherConfig{
			TopicARN: "arn:aws:sns:us-east-1:123:t", Region: "us-east-1", AWSCredentials: creds,
		}},
	}

	pubs, err := BuildAll(context.Background(), DefaultRegistry(), cfgs, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	defer CloseAll(pubs)
	for i, p := range pubs {
		if p.ID() != cfgs[i].ID || p.Type() != cfgs[i].Type {
			t.Fatalf("publisher %d = %s/%s", i, p.ID(), p.Type())
		}
	}

	if _, err := newSNSPublisher(context.Background(), PublisherConfig{ID: "bare", Type: TypeSNS}, nil); err == nil {
		t.Fatalf("expected error without sns section")
	}
}
