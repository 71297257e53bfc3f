package transcript

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const tokenBytes = 16

var (
	// ErrForbidden is returned when the ticket has no token or the token does not match.
	ErrForbidden = errors.New("transcript: forbidden")

	// ErrNotFound is returned when the token is valid but no transcript was stored.
	ErrNotFound = errors.New("transcript: not found")
)

var publishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "transcripts_published_total",
		Help: "Total number of transcripts published",
	},
	[]string{"available"},
)

type publication struct {
	token      string
	transcript *Transcript
}

// Publisher keeps transcripts and their access tokens in memory. Nothing survives a restart.
type Publisher struct {
	mut     sync.RWMutex
	baseURL string
	entries map[int]publication
}

// NewPublisher creates a publisher that builds links below baseURL.
func NewPublisher(baseURL string) *Publisher {
	return &Publisher{
		baseURL: strings.TrimRight(baseURL, "/"),
		entries: make(map[int]publication),
	}
}

// Publish mints a new token for the ticket and stores the transcript, replacing any earlier one. A nil
// transcript still mints a token so the link reports the transcript as missing rather than forbidden.
func (p *Publisher) Publish(ticketID int, t *Transcript) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	p.mut.Lock()
	p.entries[ticketID] = publication{token: token, transcript: t}
	p.mut.Unlock()

	publishedTotal.WithLabelValues(fmt.Sprintf("%t", t != nil)).Inc()
	return token, nil
}

// Lookup returns the transcript of a ticket if token is the ticket's token.
func (p *Publisher) Lookup(ticketID int, token string) (*Transcript, error) {
	p.mut.RLock()
	entry, ok := p.entries[ticketID]
	p.mut.RUnlock()

	if !ok || token == "" || subtle.ConstantTimeCompare([]byte(entry.token), []byte(token)) != 1 {
		return nil, ErrForbidden
	}
	if entry.transcript == nil {
		return nil, ErrNotFound
	}
	return entry.transcript, nil
}

// URL is the link to a published transcript.
func (p *Publisher) URL(ticketID int, token string) string {
	return fmt.Sprintf("%s/transcript/%d?token=%s", p.baseURL, ticketID, url.QueryEscape(token))
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
