package hub

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recvOne(t *testing.T, sub *Subscription) Notification {
	t.Helper()
	select {
	case n := <-sub.C:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return Notification{}
	}
}

func TestPublishReachesOnlySameEvent(t *testing.T) {
	h := New()
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	other := h.Subscribe(2)
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)
	defer h.Unsubscribe(other)

	h.Publish(1, Notification{Type: TypeVoteAdded, Payload: VoteAddedPayload{EventID: 1, RequestID: 7, VoteCount: 3}})

	for _, sub := range []*Subscription{a, b} {
		n := recvOne(t, sub)
		require.Equal(t, TypeVoteAdded, n.Type)
	}
	select {
	case n := <-other.C:
		t.Fatalf("subscriber of another event received %v", n)
	default:
	}
}

func TestUnsubscribeClosesChannelAndIsIdempotent(t *testing.T) {
	h := New()
	sub := h.Subscribe(5)
	require.Equal(t, 1, h.GroupSize(5))

	h.Unsubscribe(sub)
	require.Equal(t, 0, h.GroupSize(5))

	_, open := <-sub.C
	require.False(t, open, "channel should be closed after Unsubscribe")

	// A second Unsubscribe of the same handle must be a no-op.
	h.Unsubscribe(sub)
}

func TestPublishAfterUnsubscribeIsDropped(t *testing.T) {
	h := New()
	sub := h.Subscribe(3)
	h.Unsubscribe(sub)

	// Must not panic on the closed channel or deliver anything.
	h.Publish(3, Notification{Type: TypeRequestAdded})
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := New()
	slow := h.Subscribe(9)
	defer h.Unsubscribe(slow)

	done := make(chan struct{})
	go func() {
		// Overfill the buffer; the non-blocking send drops the excess.
		for i := 0; i < subscriberBufSize*3; i++ {
			h.Publish(9, Notification{Type: TypeVoteAdded})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	require.Len(t, slow.C, subscriberBufSize)
}

func TestConcurrentSubscribePublishUnsubscribe(t *testing.T) {
	h := New()
	const workers = 16
	const rounds = 50

	var delivered int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				sub := h.Subscribe(1)
				h.Publish(1, Notification{Type: TypeUserJoinedEvent})
				select {
				case <-sub.C:
					atomic.AddInt64(&delivered, 1)
				default:
				}
				h.Unsubscribe(sub)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, h.GroupSize(1))
	// Each worker receives at least its own publishes.
	require.GreaterOrEqual(t, delivered, int64(workers*rounds))
}
