package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consult-scheduler/internal/model"
	"consult-scheduler/pkg/logging"
)

func TestRedisNotifierPublishesToPrincipalChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, Channel("user-1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	start := time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC)
	appt := &model.Appointment{ID: "appt-1", Status: model.StatusConfirmed, SlotStart: start}
	n := NewRedisNotifier(client)
	require.NoError(t, n.Publish(ctx, "user-1", AppointmentEvent(EventReminder, appt, start.Add(-15*time.Minute))))

	select {
	case msg := <-sub.Channel():
		var evt Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		assert.Equal(t, EventReminder, evt.Type)
		assert.Equal(t, "appt-1", evt.AppointmentID)
		assert.Equal(t, "CONFIRMED", evt.Status)
		assert.True(t, evt.SlotStart.Equal(start))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNewRedisNotifierNilClient(t *testing.T) {
	assert.Nil(t, NewRedisNotifier(nil))
}

type failingNotifier struct{ calls []string }

func (f *failingNotifier) Publish(ctx context.Context, id string, evt Event) error {
	f.calls = append(f.calls, id)
	return errors.New("down")
}

func TestBroadcastSwallowsFailures(t *testing.T) {
	n := &failingNotifier{}
	Broadcast(context.Background(), n, logging.Default(), Event{Type: EventStatusChanged}, "a", "", "b")
	assert.Equal(t, []string{"a", "b"}, n.calls)

	Broadcast(context.Background(), nil, nil, Event{}, "a")
}
