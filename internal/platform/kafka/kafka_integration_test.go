//go:build integration

package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"

	"roundwise/internal/platform/config"
	"roundwise/pkg/testutil/containers"
)

func TestEnsureTopicsIsIdempotent(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	cfg := config.KafkaConfig{
		Brokers:           rp.Brokers,
		ClientID:          "roundwise-test",
		CapaTopic:         "test.capa.drafted",
		RoundTopic:        "test.round.finalized",
		Partitions:        1,
		ReplicationFactor: 1,
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	ctx := context.Background()
	require.NoError(t, EnsureTopics(ctx, client, cfg, nil))
	require.NoError(t, EnsureTopics(ctx, client, cfg, nil))

	topics, err := kadm.NewClient(client).ListTopics(ctx, Topics(cfg)...)
	require.NoError(t, err)
	require.True(t, topics.Has(cfg.CapaTopic))
	require.True(t, topics.Has(cfg.RoundTopic))
}
