package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFanoutAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	sink := Fanout{a, b, LogSink{Logger: zap.NewNop()}, Discard{}}

	sink.Publish(Event{Type: SpaceCreated, SpaceID: 1})
	sink.Publish(Event{Type: SpaceFollowed, SpaceID: 1})

	assert.Len(t, a.Events(), 2)
	assert.Equal(t, b.Events(), a.Events())
	assert.Len(t, a.OfType(SpaceFollowed), 1)

	a.Reset()
	assert.Empty(t, a.Events())
}
