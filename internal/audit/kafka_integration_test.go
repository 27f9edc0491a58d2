//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"cadastro/internal/audit"
	"cadastro/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	kafka *containers.KafkaContainer
}

func TestKafkaSinkSuite(t *testing.T) {
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
}

func (s *KafkaSinkSuite) TestEventIsDeliveredWithHeaders() {
	ctx := context.Background()
	const topic = "cadastro.audit.test"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1))

	client, err := audit.NewKafkaClient([]string{s.kafka.Brokers})
	s.Require().NoError(err)
	sink := audit.NewKafkaSink(client, topic, slog.New(slog.NewTextHandler(io.Discard, nil)))

	event := audit.Event{
		Timestamp: time.Now().UTC(),
		Type:      audit.EventCompanyCreated,
		Category:  audit.CategoryCompliance,
		Subject:   "11222333000181",
	}
	s.Require().NoError(sink.Write(ctx, event))
	s.Require().NoError(sink.Close())
	s.Error(sink.Write(ctx, event), "closed sink must reject writes")

	consumer, err := s.kafka.NewConsumer(topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForRecord(ctx, consumer, 30*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "11222333000181"
	})
	s.Require().NotNil(record, "audit record not delivered")

	var got audit.Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(audit.EventCompanyCreated, got.Type)
	s.Equal("11222333000181", got.Subject)

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("company_created", headers["event_type"])
	s.Equal("compliance", headers["category"])
}
