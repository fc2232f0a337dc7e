//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaContainer wraps a testcontainers Redpanda instance, which speaks the
// Kafka protocol without Zookeeper.
type KafkaContainer struct {
	Container testcontainers.Container
	Brokers   []string
	Admin     *kadm.Client
	client    *kgo.Client
}

// NewKafkaContainer starts a Redpanda container and an admin client.
func NewKafkaContainer(t *testing.T) *KafkaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredpanda.Run(ctx, "redpandadata/redpanda:v24.2.4")
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redpanda broker: %v", err)
	}

	client, err := kgo.NewClient(kgo.SeedBrokers(broker))
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to build kafka client: %v", err)
	}

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	return &KafkaContainer{
		Container: container,
		Brokers:   []string{broker},
		Admin:     kadm.NewClient(client),
		client:    client,
	}
}

// CreateTopic creates a topic with one partition.
func (k *KafkaContainer) CreateTopic(ctx context.Context, topic string) error {
	_, err := k.Admin.CreateTopics(ctx, 1, 1, nil, topic)
	return err
}

// Close releases the admin client.
func (k *KafkaContainer) Close() {
	k.client.Close()
}
