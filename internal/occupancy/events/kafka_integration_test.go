//go:build integration

package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"urec/internal/occupancy/events"
	"urec/internal/platform/config"
	"urec/pkg/testutil/containers"
)

const testTopic = "occupancy.changed"

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda  *containers.RedpandaContainer
	publisher *events.KafkaPublisher
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())

	admin, err := kgo.NewClient(kgo.SeedBrokers(s.redpanda.Broker))
	s.Require().NoError(err)
	defer admin.Close()

	_, err = kadm.NewClient(admin).CreateTopic(context.Background(), 1, 1, nil, testTopic)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.publisher, err = events.NewKafka(config.KafkaConfig{
		Brokers: []string{s.redpanda.Broker},
		Topic:   testTopic,
	}, logger)
	s.Require().NoError(err)
	s.Require().NotNil(s.publisher)
}

func (s *KafkaPublisherSuite) TearDownSuite() {
	if s.publisher != nil {
		s.publisher.Close()
	}
}

func (s *KafkaPublisherSuite) TestHealth() {
	s.Require().NoError(s.publisher.Health(context.Background()))
}

func (s *KafkaPublisherSuite) TestPublishChangedDeliversKeyedEvent() {
	ctx := context.Background()
	sent := events.Changed{
		EventID:        "evt-1",
		AreaID:         "pool",
		Action:         "enter",
		Delta:          3,
		NewCount:       3,
		UpdateSequence: 1,
		OccurredAt:     time.Now().UTC().Truncate(time.Millisecond),
	}

	s.publisher.PublishChanged(ctx, sent)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	fetches := consumer.PollFetches(pollCtx)
	s.Require().NoError(fetches.Err())

	records := fetches.Records()
	s.Require().NotEmpty(records)

	record := records[0]
	s.Equal("pool", string(record.Key), "events are keyed by area id")

	var got events.Changed
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(sent.EventID, got.EventID)
	s.Equal(sent.Action, got.Action)
	s.Equal(sent.NewCount, got.NewCount)
	s.True(sent.OccurredAt.Equal(got.OccurredAt))
}
