//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"bloodline/internal/events"
	"bloodline/pkg/domain"
	"bloodline/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
}

func (s *KafkaSinkSuite) consume(topic string, want int) []*kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < want {
		fetches := client.PollFetches(ctx)
		s.Require().NoError(fetches.Err())
		records = append(records, fetches.Records()...)
	}
	return records
}

func (s *KafkaSinkSuite) TestAppendRoundTrip() {
	ctx := context.Background()
	topic := "bloodline.transitions.test"

	sink, err := events.NewKafkaSink(ctx, []string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	defer sink.Close()

	entityID := uuid.NewString()
	event := events.Event{
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
		EntityType: domain.EntityDonation,
		EntityID:   entityID,
		From:       domain.DonationDonating,
		To:         domain.DonationCompleted,
		Role:       domain.RoleNurse,
	}
	s.Require().NoError(sink.Append(ctx, event))

	records := s.consume(topic, 1)
	s.Require().Len(records, 1)
	s.Equal(entityID, string(records[0].Key))

	var got events.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event, got)
}

// TestOrderingPerEntity checks that one entity's transitions land in emit
// order; the sink keys records by entity id so they share a partition.
func (s *KafkaSinkSuite) TestOrderingPerEntity() {
	ctx := context.Background()
	topic := "bloodline.transitions.ordering"

	sink, err := events.NewKafkaSink(ctx, []string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	defer sink.Close()

	entityID := uuid.NewString()
	transitions := []domain.Status{
		domain.DonationDonating, domain.DonationCompleted,
	}
	from := domain.DonationPending
	for _, to := range transitions {
		s.Require().NoError(sink.Append(ctx, events.Event{
			Timestamp:  time.Now().UTC(),
			EntityType: domain.EntityDonation,
			EntityID:   entityID,
			From:       from,
			To:         to,
			Role:       domain.RoleNurse,
		}))
		from = to
	}

	records := s.consume(topic, len(transitions))
	s.Require().Len(records, len(transitions))
	for i, record := range records {
		var got events.Event
		s.Require().NoError(json.Unmarshal(record.Value, &got))
		s.Equal(transitions[i], got.To)
	}
}

func (s *KafkaSinkSuite) TestTopicAlreadyExists() {
	ctx := context.Background()
	topic := "bloodline.transitions.existing"

	first, err := events.NewKafkaSink(ctx, []string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	first.Close()

	// Reconnecting against an existing topic must not fail startup.
	second, err := events.NewKafkaSink(ctx, []string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	second.Close()
}
