package platform

import (
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	current := Overwrites{
		Role("guild"):   Hidden,
		Role("staff"):   ViewSend,
		Member("alice"): ViewSend,
		Member("bot"):   ViewSend,
	}
	desired := Overwrites{
		Role("guild"): Hidden,
		Role("staff"): Hidden,
		Member("bot"): ViewSend,
		Member("bob"): ViewSend,
	}

	set, revoke := Diff(current, desired)
	require.Equal(t, Overwrites{
		Role("staff"):  Hidden,
		Member("bob"): ViewSend,
	}, set)
	require.Equal(t, []Subject{Member("alice")}, revoke)

	set, revoke = Diff(desired, desired.Clone())
	require.Empty(t, set)
	require.Empty(t, revoke)
}

func TestApply_KeepsUnmanagedBits(t *testing.T) {
	list := []*discordgo.PermissionOverwrite{
		{
			ID:    "staff",
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionAttachFiles,
			Deny:  discordgo.PermissionSendMessages,
		},
		{
			ID:    "alice",
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel,
		},
	}

	got := Apply(list, Overwrites{
		Role("staff"): ViewSend,
		Member("bob"): ViewSend,
	}, []Subject{Member("alice")})

	want := []*discordgo.PermissionOverwrite{
		{
			ID:    "staff",
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles,
		},
		{
			ID:    "bob",
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory | discordgo.PermissionSendMessages,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("overwrites mismatch (-want +got):\n%s", diff)
	}

	// The input is left untouched.
	require.Equal(t, int64(discordgo.PermissionSendMessages), list[0].Deny)
	require.Len(t, list, 2)
}

func TestFromDiscord_RoundTrip(t *testing.T) {
	o := Overwrites{
		Role("guild"):   Hidden,
		Role("staff"):   ViewSend,
		Member("alice"): {View: true},
	}
	require.True(t, o.Equal(FromDiscord(o.ToDiscord())))
}

func TestBuildChannelEdit(t *testing.T) {
	current := &discordgo.Channel{
		ID:                   "c1",
		Name:                 "ticket-1",
		ParentID:             "open",
		Position:             7,
		PermissionOverwrites: Overwrites{Role("guild"): Hidden, Member("bot"): ViewSend}.ToDiscord(),
	}

	_, changed := buildChannelEdit(current, ChannelUpdate{Name: "ticket-1", Access: Overwrites{Member("bot"): ViewSend}})
	require.False(t, changed)

	edit, changed := buildChannelEdit(current, ChannelUpdate{Name: "closed-ticket-1", ParentID: "closed"})
	require.True(t, changed)
	require.Equal(t, "closed-ticket-1", edit.Name)
	require.Equal(t, "closed", edit.ParentID)
	require.NotNil(t, edit.Position)
	require.Equal(t, 7, *edit.Position)
	require.Len(t, edit.PermissionOverwrites, 2)

	edit, changed = buildChannelEdit(current, ChannelUpdate{Revoke: []Subject{Member("bot")}})
	require.True(t, changed)
	require.Equal(t, "ticket-1", edit.Name)
	require.Len(t, edit.PermissionOverwrites, 1)
}
