package producers

import (
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMessagePublishesValue(t *testing.T) {
	mock := mocks.NewSyncProducer(t, sarama.NewConfig())
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"simulation_id":"demo_run_01"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	producer := NewSaramaProducerFrom(mock)
	require.NoError(t, producer.WriteMessage("golf_runs", "demo_run_01", []byte(`{"simulation_id":"demo_run_01"}`)))
	require.NoError(t, producer.Close())
}

func TestWriteMessageReturnsBrokerError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, sarama.NewConfig())
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewSaramaProducerFrom(mock)
	err := producer.WriteMessage("golf_runs", "demo_run_01", []byte("{}"))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestNewSaramaProducerRequiresBrokers(t *testing.T) {
	_, err := NewSaramaProducer(models.OutputConfig{Destination: "kafka"})
	assert.Error(t, err)
}

func TestWriteMessageWithoutProducer(t *testing.T) {
	var producer SaramaProducer
	assert.Error(t, producer.WriteMessage("golf_runs", "", nil))
	assert.NoError(t, producer.Close())
}
