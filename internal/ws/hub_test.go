package ws

import (
	"testing"
	"time"

	"github.com/pvidal/amigoinvisible/internal/storage"
)

// testClient builds a client with a buffered send channel and no
// connection; the pumps are not started, so the hub's channel plumbing
// can be exercised directly.
func testClient(hub *Hub, groupID string) *Client {
	return &Client{
		hub:     hub,
		groupID: groupID,
		send:    make(chan storage.ChangeEvent, 4),
	}
}

func recvEvent(t *testing.T, c *Client) storage.ChangeEvent {
	t.Helper()
	select {
	case ev := <-c.send:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return storage.ChangeEvent{}
	}
}

func TestHub_FanOutPerGroup(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	a1 := testClient(hub, "group-a")
	a2 := testClient(hub, "group-a")
	b := testClient(hub, "group-b")
	for _, c := range []*Client{a1, a2, b} {
		hub.register <- c
	}

	hub.Notify(storage.ChangeEvent{Table: "group_members", GroupID: "group-a", Op: storage.OpInsert})

	for _, c := range []*Client{a1, a2} {
		ev := recvEvent(t, c)
		if ev.GroupID != "group-a" || ev.Op != storage.OpInsert {
			t.Errorf("unexpected event: %+v", ev)
		}
	}

	// The other group's client sees nothing.
	select {
	case ev := <-b.send:
		t.Errorf("event leaked across groups: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	c := testClient(hub, "group-a")
	hub.register <- c
	hub.unregister <- c

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}

	// Events after unregister are dropped, not delivered.
	hub.Notify(storage.ChangeEvent{Table: "groups", GroupID: "group-a", Op: storage.OpUpdate})
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	slow := testClient(hub, "group-a")
	hub.register <- slow

	// Overflow the client's buffer; the hub must keep draining its event
	// queue instead of blocking on the stuck client.
	for i := 0; i < cap(slow.send)+8; i++ {
		hub.Notify(storage.ChangeEvent{Table: "group_members", GroupID: "group-a", Op: storage.OpUpdate})
	}

	fresh := testClient(hub, "group-a")
	hub.register <- fresh
	hub.Notify(storage.ChangeEvent{Table: "groups", GroupID: "group-a", Op: storage.OpUpdate})

	// fresh may also pick up queued member events; the groups event
	// arriving at all proves the hub is still live.
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-fresh.send:
			if ev.Table == "groups" {
				return
			}
		case <-deadline:
			t.Fatal("hub stopped delivering events")
		}
	}
}
