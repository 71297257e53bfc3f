package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisher(t *testing.T) {
	p := NewPublisher("https://tickets.example.com/")
	tr := &Transcript{TicketID: 1}

	token, err := p.Publish(1, tr)
	require.NoError(t, err)
	require.Len(t, token, 32)

	got, err := p.Lookup(1, token)
	require.NoError(t, err)
	require.Same(t, tr, got)

	_, err = p.Lookup(1, "wrong")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = p.Lookup(1, "")
	require.ErrorIs(t, err, ErrForbidden)

	// A token only opens the ticket it was minted for.
	_, err = p.Lookup(2, token)
	require.ErrorIs(t, err, ErrForbidden)

	require.Equal(t, "https://tickets.example.com/transcript/1?token="+token, p.URL(1, token))
}

func TestPublisher_Republish(t *testing.T) {
	p := NewPublisher("http://localhost:8080")

	first, err := p.Publish(3, &Transcript{TicketID: 3})
	require.NoError(t, err)
	second, err := p.Publish(3, &Transcript{TicketID: 3})
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = p.Lookup(3, first)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = p.Lookup(3, second)
	require.NoError(t, err)
}

func TestPublisher_MissingTranscript(t *testing.T) {
	p := NewPublisher("http://localhost:8080")

	token, err := p.Publish(4, nil)
	require.NoError(t, err)

	_, err = p.Lookup(4, token)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = p.Lookup(4, "wrong")
	require.ErrorIs(t, err, ErrForbidden)
}
