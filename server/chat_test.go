package server

import (
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatLogScrollback(t *testing.T) {
	cl := &chatLog{}
	id := uuid.New()

	cl.add(id, "alice", "one")
	cl.add(id, "alice", "two")

	hist := cl.history()
	require.Len(t, hist, 2)
	assert.Equal(t, "one", hist[0].Text)
	assert.Equal(t, "two", hist[1].Text)
}

func TestChatLogEvictsOldest(t *testing.T) {
	cl := &chatLog{}
	id := uuid.New()

	for i := 0; i < maxScrollback+10; i++ {
		cl.add(id, "alice", strconv.Itoa(i))
	}

	hist := cl.history()
	require.Len(t, hist, maxScrollback)
	assert.Equal(t, "10", hist[0].Text)
	assert.Equal(t, strconv.Itoa(maxScrollback+9), hist[maxScrollback-1].Text)
}

func TestChatLogStableInLongLivedRoom(t *testing.T) {
	cl := &chatLog{}
	id := uuid.New()

	// Well past where a 16-bit message counter would wrap; replay order
	// must stay intact regardless of how many messages came before.
	const total = 1<<16 + 10
	for i := 0; i < total; i++ {
		cl.add(id, "alice", strconv.Itoa(i))
	}

	hist := cl.history()
	require.Len(t, hist, maxScrollback)
	for i, entry := range hist {
		assert.Equal(t, strconv.Itoa(total-maxScrollback+i), entry.Text)
	}
}
