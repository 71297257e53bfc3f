package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 5 * time.Second

func requireDone(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for the operation")
	}
}

func requirePending(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
		t.Fatal("operation finished while it should be waiting")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestKeyedMutex(t *testing.T) {
	var k keyedMutex

	unlockA := k.lock("a")

	other := make(chan struct{})
	go func() {
		k.lock("b")()
		close(other)
	}()
	requireDone(t, other)

	same := make(chan struct{})
	go func() {
		k.lock("a")()
		close(same)
	}()
	requirePending(t, same)

	unlockA()
	requireDone(t, same)

	k.mut.Lock()
	defer k.mut.Unlock()
	require.Empty(t, k.locks)
}

func TestManager_CloseDoesNotBlockOtherTickets(t *testing.T) {
	fx := newFixture(t)
	fx.setupPanel(t)
	ctx := context.Background()

	first := fx.open(t, creatorID)
	second := fx.open(t, outsiderID)
	staff := fx.actor(t, staffID)

	_, err := fx.mgr.RequestClose(ctx, staff, first.ChannelID)
	require.NoError(t, err)

	waiting, release := fx.fake.HoldNext("History")
	defer release()

	closed := make(chan struct{})
	var closeErr error
	go func() {
		defer close(closed)
		_, closeErr = fx.mgr.ConfirmClose(ctx, staff, first.ChannelID)
	}()
	requireDone(t, waiting)

	// Another ticket is served while the close waits on the platform.
	claimed := make(chan struct{})
	var claimErr error
	go func() {
		defer close(claimed)
		_, claimErr = fx.mgr.Claim(ctx, staff, second.ChannelID)
	}()
	requireDone(t, claimed)
	require.NoError(t, claimErr)

	// The ticket being closed waits for the close to finish.
	sameTicket := make(chan struct{})
	var sameErr error
	go func() {
		defer close(sameTicket)
		_, sameErr = fx.mgr.Claim(ctx, staff, first.ChannelID)
	}()
	requirePending(t, sameTicket)

	release()
	requireDone(t, closed)
	require.NoError(t, closeErr)

	requireDone(t, sameTicket)
	e := requireKind(t, sameErr, KindPrecondition)
	require.Equal(t, messages.ErrNotOpenTicket, e.Message)

	require.Equal(t, entities.StateClosed, fx.stored(t, first.ID).State)
	require.Equal(t, entities.StateClaimed, fx.stored(t, second.ID).State)
}

func TestManager_Open_ConcurrentSameCreator(t *testing.T) {
	fx := newFixture(t)
	fx.setupPanel(t)
	ctx := context.Background()

	creator := fx.actor(t, creatorID)

	waiting, release := fx.fake.HoldNext("CreateChannel")
	defer release()

	opened := make(chan struct{})
	var openErr error
	go func() {
		defer close(opened)
		_, openErr = fx.mgr.Open(ctx, creator)
	}()
	requireDone(t, waiting)

	again := make(chan struct{})
	var againErr error
	go func() {
		defer close(again)
		_, againErr = fx.mgr.Open(ctx, creator)
	}()
	requirePending(t, again)

	// Other members are not held up by the pending ticket.
	other := fx.open(t, outsiderID)
	require.Equal(t, 2, other.ID)

	release()
	requireDone(t, opened)
	require.NoError(t, openErr)

	requireDone(t, again)
	e := requireKind(t, againErr, KindPrecondition)
	require.Equal(t, messages.ErrAlreadyOpen, e.Message)
}
