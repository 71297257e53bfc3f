package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Jacobbrewer1/husky/pkg/custom"
	"github.com/stretchr/testify/require"
)

func TestTicket_Name(t *testing.T) {
	tk := &Ticket{ID: 7, State: StateOpen}
	require.Equal(t, "ticket-7", tk.Name())

	tk.State = StateClaimed
	require.Equal(t, "ticket-7", tk.Name())

	tk.State = StateClosed
	require.Equal(t, "closed-ticket-7", tk.Name())
}

func TestTicket_ButtonLabels(t *testing.T) {
	tk := &Ticket{
		InitialMessageID:           "10",
		InitialMessageButtons:      []string{"📩 Claim Ticket", "🔒 Close Ticket"},
		ConfirmationMessageID:      "11",
		ConfirmationMessageButtons: []string{"Proceed", "Abort"},
	}

	got, ok := tk.ButtonLabels("10")
	require.True(t, ok)
	require.Equal(t, []string{"📩 Claim Ticket", "🔒 Close Ticket"}, got)

	got, ok = tk.ButtonLabels("11")
	require.True(t, ok)
	require.Equal(t, []string{"Proceed", "Abort"}, got)

	_, ok = tk.ButtonLabels("12")
	require.False(t, ok)

	_, ok = (&Ticket{}).ButtonLabels("")
	require.False(t, ok)
}

func TestTicket_JSON(t *testing.T) {
	tk := Ticket{
		ID:        3,
		GuildID:   "g",
		ChannelID: "c",
		CreatorID: "u",
		State:     StateClaimed,
		ClaimerID: "s",
		CreatedAt: custom.NewDatetime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
	}

	b, err := json.Marshal(tk)
	require.NoError(t, err)

	var got Ticket
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, tk.State, got.State)
	require.Equal(t, tk.ClaimerID, got.ClaimerID)
	require.True(t, got.IsOpen())
	require.True(t, got.IsClaimed())
	require.True(t, got.ClosedAt.IsZero())
}

func TestState_UnmarshalJSON(t *testing.T) {
	var s State
	require.NoError(t, json.Unmarshal([]byte(`""`), &s))
	require.False(t, s.Valid())

	require.NoError(t, json.Unmarshal([]byte(`"closed"`), &s))
	require.Equal(t, StateClosed, s)

	require.Error(t, json.Unmarshal([]byte(`"closing"`), &s))
}
