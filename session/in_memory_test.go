package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentrouter/model"
)

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	s := NewInMemoryStore()

	sess, err := s.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.Messages)
	assert.False(t, sess.Created.IsZero())
}

func TestInMemoryStore_AppendAndHistory(t *testing.T) {
	s := NewInMemoryStore()

	require.NoError(t, s.Append("s1", model.UserMessage("q1"), model.AssistantMessage("a1")))
	require.NoError(t, s.Append("s1", model.UserMessage("q2"), model.AssistantMessage("a2")))

	all, err := s.History("s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "q1", all[0].Content)
	assert.Equal(t, "a2", all[3].Content)

	last, err := s.History("s1", 2)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{model.UserMessage("q2"), model.AssistantMessage("a2")}, last)

	none, err := s.History("unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("s1", model.UserMessage("original")))

	hist, err := s.History("s1", 0)
	require.NoError(t, err)
	hist[0].Content = "mutated"

	sess, err := s.Get("s1")
	require.NoError(t, err)
	sess.Messages[0].Content = "mutated too"

	hist, err = s.History("s1", 0)
	require.NoError(t, err)
	assert.Equal(t, "original", hist[0].Content)
}

func TestInMemoryStore_CreateResets(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("s1", model.UserMessage("q")))

	sess, err := s.Create("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)

	hist, err := s.History("s1", 0)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append("shared", model.UserMessage(fmt.Sprintf("m%d", i)))
			_, _ = s.History("shared", 5)
			_, _ = s.Get(fmt.Sprintf("s%d", i%3))
		}(i)
	}
	wg.Wait()

	hist, err := s.History("shared", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 50)
}

func TestNewID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}
