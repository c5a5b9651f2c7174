package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	capamodels "roundwise/internal/capa/models"
	"roundwise/internal/evaluation/metrics"
	"roundwise/internal/evaluation/models"
	"roundwise/internal/platform/config"
	id "roundwise/pkg/domain"
	"roundwise/pkg/requestcontext"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	failOn  string
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		var err error
		if r.Topic == f.failOn {
			err = errors.New("broker unavailable")
		} else {
			f.records = append(f.records, r)
		}
		out = append(out, kgo.ProduceResult{Record: r, Err: err})
	}
	return out
}

var (
	kafkaCfg  = config.KafkaConfig{CapaTopic: "capa", RoundTopic: "rounds"}
	eventTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
)

func committed(itemID id.ItemID, created bool) capamodels.Committed {
	return capamodels.Committed{
		Draft: capamodels.Draft{
			Title:         "Corrective action: Item",
			Department:    "Kitchen",
			Severity:      4,
			SourceRoundID: 12,
			SourceItemID:  itemID,
			RiskLevel:     models.RiskMajor,
		},
		ID:        id.NewCapaID(),
		CreatedBy: "inspector-7",
		Created:   created,
	}
}

func TestRoundFinalizedEvent(t *testing.T) {
	producer := &fakeProducer{}
	p := New(producer, kafkaCfg)
	ctx := requestcontext.WithTime(context.Background(), eventTime)

	err := p.RoundFinalized(ctx, "inspector-7",
		models.RoundMeta{ID: 12, Department: "Kitchen"},
		models.FinalizedSnapshot{
			RoundID:              12,
			Evaluations:          make([]models.SnapshotEntry, 3),
			CompletionPercentage: 100,
			FinalizedAt:          eventTime,
		})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "rounds", rec.Topic)
	assert.Equal(t, "12", string(rec.Key))
	assert.Equal(t, []kgo.RecordHeader{{Key: "event_type", Value: []byte(TypeRoundFinalized)}}, rec.Headers)

	var event RoundFinalized
	require.NoError(t, json.Unmarshal(rec.Value, &event))
	assert.Equal(t, TypeRoundFinalized, event.Type)
	assert.Equal(t, eventTime, event.OccurredAt)
	assert.Equal(t, id.EvaluatorID("inspector-7"), event.FinalizedBy)
	assert.Equal(t, 3, event.ItemCount)
	assert.Equal(t, "Kitchen", event.Department)
}

func TestCapaDraftedSkipsReplays(t *testing.T) {
	producer := &fakeProducer{}
	p := New(producer, kafkaCfg)

	created := committed(10, true)
	err := p.CapaDrafted(context.Background(), []capamodels.Committed{created, committed(11, false)})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	var event CapaDrafted
	require.NoError(t, json.Unmarshal(producer.records[0].Value, &event))
	assert.Equal(t, created.ID, event.CapaID)
	assert.Equal(t, id.ItemID(10), event.SourceItemID)
	assert.Equal(t, "12", string(producer.records[0].Key))
}

func TestEventIDsAreUnique(t *testing.T) {
	producer := &fakeProducer{}
	p := New(producer, kafkaCfg)

	require.NoError(t, p.CapaDrafted(context.Background(), []capamodels.Committed{committed(10, true), committed(11, true)}))
	require.Len(t, producer.records, 2)

	var a, b CapaDrafted
	require.NoError(t, json.Unmarshal(producer.records[0].Value, &a))
	require.NoError(t, json.Unmarshal(producer.records[1].Value, &b))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestProduceFailureIsReported(t *testing.T) {
	producer := &fakeProducer{failOn: "capa"}
	m := metrics.New(prometheus.NewRegistry())
	p := New(producer, kafkaCfg, WithMetrics(m))

	err := p.CapaDrafted(context.Background(), []capamodels.Committed{committed(10, true), committed(11, true)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.EventPublishFailures))
}

func TestNilProducerIsNoop(t *testing.T) {
	p := New(nil, kafkaCfg)
	assert.NoError(t, p.CapaDrafted(context.Background(), []capamodels.Committed{committed(10, true)}))
	assert.NoError(t, p.RoundFinalized(context.Background(), "inspector-7", models.RoundMeta{ID: 1}, models.FinalizedSnapshot{RoundID: 1}))
}
