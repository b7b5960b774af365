package broker_test

import (
	"testing"
	"time"

	"github.com/Isabellarossi/edgedb/broker"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	b := broker.New[int](4)

	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Publish(7)

	for i, ch := range []<-chan int{ch1, ch2} {
		select {
		case v := <-ch:
			if v != 7 {
				t.Fatalf("subscriber %d got %d, want 7", i, v)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	t.Parallel()
	b := broker.New[int](1)

	ch, unsub := b.Subscribe()
	defer unsub()

	b.Publish(1)
	b.Publish(2) // dropped, buffer full

	if v := <-ch; v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %d", v)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()
	b := broker.New[string](1)

	ch, unsub := b.Subscribe()
	if b.Subscribers() != 1 {
		t.Fatalf("got %d subscribers, want 1", b.Subscribers())
	}
	unsub()
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if b.Subscribers() != 0 {
		t.Fatalf("got %d subscribers, want 0", b.Subscribers())
	}
	b.Publish("ignored")
}

func TestClose(t *testing.T) {
	t.Parallel()
	b := broker.New[string](1)

	ch, unsub := b.Subscribe()
	b.Close()
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after Close")
	}

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("expected closed channel when subscribing after Close")
	}
}
