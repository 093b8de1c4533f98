package upstream

import (
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreReplacesAtomically(t *testing.T) {
	s := NewSessionStore()
	require.True(t, s.IsEmpty())
	require.True(t, s.EstablishedAt().IsZero())

	first := []*http.Cookie{{Name: "authtoken", Value: "one"}}
	s.Set(first)
	require.False(t, s.IsEmpty())
	assert.False(t, s.EstablishedAt().IsZero())
	assert.Equal(t, "one", s.Current()[0].Value)

	// Mutating the caller's slice after Set must not affect the store.
	first[0] = &http.Cookie{Name: "authtoken", Value: "tampered"}
	assert.Equal(t, "one", s.Current()[0].Value)

	s.Set([]*http.Cookie{{Name: "authtoken", Value: "two"}, {Name: "irsso", Value: "x"}})
	got := s.Current()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Value)
}

func TestSessionStoreConcurrentSwap(t *testing.T) {
	s := NewSessionStore()
	s.Set([]*http.Cookie{{Name: "authtoken", Value: "a"}, {Name: "irsso", Value: "a"}})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Set([]*http.Cookie{{Name: "authtoken", Value: "b"}, {Name: "irsso", Value: "b"}})
			s.Set([]*http.Cookie{{Name: "authtoken", Value: "a"}, {Name: "irsso", Value: "a"}})
		}
		close(stop)
	}()

	// Readers must always observe a complete cookie set from one session.
	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		got := s.Current()
		require.Len(t, got, 2)
		assert.Equal(t, got[0].Value, got[1].Value)
	}
}
