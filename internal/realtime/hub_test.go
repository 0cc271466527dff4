package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case data := <-c.Messages():
		var env Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("expected a message")
		return Envelope{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Messages():
		t.Fatalf("unexpected message %s", data)
	default:
	}
}

func TestParseRoom(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	r, err := ParseRoom("board-12")
	require.NoError(t, err)
	assert.Equal(BoardRoom(12), r)
	assert.Equal("card-3", CardRoom(3).String())

	for _, bad := range []string{"board", "board-x", "list-1", "card-0", ""} {
		_, err := ParseRoom(bad)
		assert.Error(err, bad)
	}
}

func TestJoinIsLastSubscriptionWinsPerNamespace(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	hub := NewHub(zap.NewNop())
	c := NewClient(uuid.New())
	hub.Register(c)

	assert.Nil(hub.Join(c, BoardRoom(1), 1))
	assert.Nil(hub.Join(c, CardRoom(10), 1))

	left := hub.Join(c, BoardRoom(2), 2)
	require.NotNil(t, left)
	assert.Equal(BoardRoom(1), *left)

	assert.Equal([]Room{BoardRoom(2), CardRoom(10)}, hub.Rooms(c))
	assert.Zero(hub.Size(BoardRoom(1)))
	assert.Equal(1, hub.Size(BoardRoom(2)))

	require.NoError(t, hub.Publish(BoardRoom(1), EventCardNew, map[string]int{"id": 1}))
	assertEmpty(t, c)

	require.NoError(t, hub.Publish(BoardRoom(2), EventCardNew, map[string]int{"id": 2}))
	env := receive(t, c)
	assert.Equal("board-2", env.Room)
	assert.Equal(EventCardNew, env.Event)
	assert.JSONEq(`{"id":2}`, string(env.Payload))
}

func TestPublishOnlyReachesRoomMembers(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	a, b := NewClient(uuid.New()), NewClient(uuid.New())
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, CardRoom(5), 1)
	hub.Join(b, BoardRoom(5), 5)

	require.NoError(t, hub.Publish(CardRoom(5), EventCardActivity, nil))

	assert.Equal(t, EventCardActivity, receive(t, a).Event)
	assertEmpty(t, b)
}

func TestSlowClientDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	c := NewClient(uuid.New())
	hub.Register(c)
	hub.Join(c, BoardRoom(1), 1)

	for i := 0; i < clientBuffer+5; i++ {
		require.NoError(t, hub.Publish(BoardRoom(1), EventListNew, i))
	}
	assert.Len(t, c.send, clientBuffer)
}

func TestUnregisterClosesStream(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	c := NewClient(uuid.New())
	hub.Register(c)
	hub.Join(c, BoardRoom(1), 1)

	hub.Unregister(c)
	hub.Unregister(c)

	_, ok := <-c.Messages()
	assert.False(t, ok)
	assert.Zero(t, hub.Size(BoardRoom(1)))
	require.NoError(t, hub.Publish(BoardRoom(1), EventListNew, nil))
}

func TestLeaveIgnoresInactiveRoom(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	c := NewClient(uuid.New())
	hub.Register(c)
	hub.Join(c, BoardRoom(2), 2)

	hub.Leave(c, BoardRoom(1))
	assert.Equal(t, 1, hub.Size(BoardRoom(2)))

	hub.Leave(c, BoardRoom(2))
	assert.Empty(t, hub.Rooms(c))
}

func TestEvictUserLeavesOnlyThatBoard(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	user := uuid.New()
	a, b := NewClient(user), NewClient(user)
	other := NewClient(uuid.New())
	for _, c := range []*Client{a, b, other} {
		hub.Register(c)
	}
	hub.Join(a, BoardRoom(1), 1)
	hub.Join(a, CardRoom(40), 1)
	hub.Join(b, BoardRoom(2), 2)
	hub.Join(b, CardRoom(41), 1)
	hub.Join(other, BoardRoom(1), 1)

	require.NoError(t, hub.Evict(1, user))

	assert.Empty(t, hub.Rooms(a))
	assert.Equal(t, []Room{BoardRoom(2)}, hub.Rooms(b))
	assert.Equal(t, []Room{BoardRoom(1)}, hub.Rooms(other))

	got := map[string]string{}
	for i := 0; i < 2; i++ {
		env := receive(t, a)
		got[env.Room] = env.Event
	}
	assert.Equal(t, map[string]string{"board-1": EventAccessRevoked, "card-40": EventAccessRevoked}, got)
	assert.Equal(t, "card-41", receive(t, b).Room)
	assertEmpty(t, b)
	assertEmpty(t, other)

	require.NoError(t, hub.Publish(BoardRoom(1), EventListNew, nil))
	require.NoError(t, hub.Publish(CardRoom(40), EventCardActivity, nil))
	assertEmpty(t, a)
	assert.Equal(t, EventListNew, receive(t, other).Event)
}

func TestEvictNilUserClearsBoard(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	a, b := NewClient(uuid.New()), NewClient(uuid.New())
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, BoardRoom(3), 3)
	hub.Join(b, CardRoom(9), 3)
	hub.Join(b, BoardRoom(4), 4)

	require.NoError(t, hub.Evict(3, uuid.Nil))

	assert.Zero(t, hub.Size(BoardRoom(3)))
	assert.Zero(t, hub.Size(CardRoom(9)))
	assert.Equal(t, []Room{BoardRoom(4)}, hub.Rooms(b))
	assert.Equal(t, EventAccessRevoked, receive(t, a).Event)
	assert.Equal(t, EventAccessRevoked, receive(t, b).Event)
}

func TestRejoinMovesRoomToNewBoard(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	c := NewClient(uuid.New())
	hub.Register(c)
	hub.Join(c, CardRoom(5), 1)
	hub.Join(c, CardRoom(6), 2)

	require.NoError(t, hub.Evict(1, c.UserID))
	assert.Equal(t, []Room{CardRoom(6)}, hub.Rooms(c))
	assertEmpty(t, c)
}

func TestRedisBrokerHandleDeliversLocally(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	c := NewClient(uuid.New())
	hub.Register(c)
	hub.Join(c, CardRoom(7), 1)

	broker := NewRedisBroker(nil, hub, "", zap.NewNop())
	assert.Equal(t, DefaultChannel, broker.channel)

	env, err := NewEnvelope(CardRoom(7), EventCardDateNew, map[string]string{"k": "v"})
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)

	broker.handle("not json")
	broker.handle(`{"room":"list-1","event":"x","payload":null}`)
	broker.handle(string(data))

	got := receive(t, c)
	assert.Equal(t, EventCardDateNew, got.Event)
	assertEmpty(t, c)
}

func TestRedisBrokerHandleAppliesEviction(t *testing.T) {
	t.Parallel()
	hub := NewHub(zap.NewNop())
	user := uuid.New()
	c, other := NewClient(user), NewClient(uuid.New())
	hub.Register(c)
	hub.Register(other)
	hub.Join(c, BoardRoom(7), 7)
	hub.Join(other, BoardRoom(7), 7)

	broker := NewRedisBroker(nil, hub, "", zap.NewNop())
	env, err := NewEnvelope(BoardRoom(7), evictEvent, evictPayload{UserID: user})
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)

	broker.handle(`{"room":"card-7","event":"hub.evict","payload":{}}`)
	broker.handle(`{"room":"board-7","event":"hub.evict","payload":"x"}`)
	assert.Equal(t, 2, hub.Size(BoardRoom(7)))

	broker.handle(string(data))

	assert.Equal(t, EventAccessRevoked, receive(t, c).Event)
	assertEmpty(t, other)
	assert.Equal(t, 1, hub.Size(BoardRoom(7)))
}
