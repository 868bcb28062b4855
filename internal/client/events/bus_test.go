package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemark/versemark/internal/models"
)

func TestPublishReachesCurrentSubscribers(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	bus.Publish(models.SyncResult{Processed: 2, Succeeded: 2})

	for _, ch := range []<-chan models.SyncResult{ch1, ch2} {
		select {
		case res := <-ch:
			assert.Equal(t, 2, res.Processed)
		default:
			t.Fatal("expected a delivered result")
		}
	}
}

func TestLateSubscriberMissesEarlierPublish(t *testing.T) {
	bus := NewBus()
	bus.Publish(models.SyncResult{Processed: 1})

	ch, cancel := bus.Subscribe()
	defer cancel()

	select {
	case <-ch:
		t.Fatal("late subscriber must not receive earlier results")
	default:
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(models.SyncResult{Processed: 1})
	bus.Publish(models.SyncResult{Processed: 2}) // dropped, buffer full

	res := <-ch
	assert.Equal(t, 1, res.Processed)

	select {
	case res, ok := <-ch:
		require.True(t, ok)
		t.Fatalf("unexpected second delivery: %+v", res)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// double cancel is safe
	cancel()
	bus.Publish(models.SyncResult{})
}
