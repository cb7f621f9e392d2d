package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
)

func TestOffsetTrackerMarksContiguousPrefix(t *testing.T) {
	session := &fakeSession{}
	offsets := newOffsetTracker(session)

	msgs := make([]*sarama.ConsumerMessage, 4)
	for i := range msgs {
		msgs[i] = &sarama.ConsumerMessage{Topic: "events", Offset: int64(10 + i)}
		offsets.Add(msgs[i])
	}

	offsets.Done(msgs[2])
	offsets.Done(msgs[1])
	assert.Empty(t, session.offsets(), "offset 10 is still pending")

	offsets.Done(msgs[0])
	assert.Equal(t, []int64{12}, session.offsets())

	offsets.Done(msgs[3])
	assert.Equal(t, []int64{12, 13}, session.offsets())
}
