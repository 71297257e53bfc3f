package platform

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	restErr := func(code int) error {
		return &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusBadRequest},
			Message:  &discordgo.APIErrorMessage{Code: code},
		}
	}

	require.ErrorIs(t, wrap("x", restErr(discordgo.ErrCodeUnknownMember)), ErrNotFound)
	require.ErrorIs(t, wrap("x", restErr(discordgo.ErrCodeUnknownChannel)), ErrNotFound)
	require.ErrorIs(t, wrap("x", restErr(discordgo.ErrCodeCannotSendMessagesToThisUser)), ErrCannotDM)

	other := wrap("x", restErr(discordgo.ErrCodeMissingAccess))
	require.False(t, errors.Is(other, ErrNotFound))
	require.False(t, errors.Is(other, ErrCannotDM))

	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	require.ErrorIs(t, wrap("x", notFound), ErrNotFound)

	plain := errors.New("boom")
	require.ErrorIs(t, wrap("x", plain), plain)
	require.EqualError(t, wrap("x", plain), "x: boom")
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Nick", DisplayName(&discordgo.Member{Nick: "Nick", User: &discordgo.User{Username: "user"}}))
	require.Equal(t, "user", DisplayName(&discordgo.Member{User: &discordgo.User{Username: "user"}}))
	require.Empty(t, DisplayName(nil))
}

func TestIsAdministrator(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "admin", Permissions: discordgo.PermissionAdministrator},
		{ID: "staff", Permissions: discordgo.PermissionSendMessages},
	}

	require.True(t, IsAdministrator(&discordgo.Member{Roles: []string{"staff", "admin"}}, roles))
	require.False(t, IsAdministrator(&discordgo.Member{Roles: []string{"staff"}}, roles))
	require.True(t, IsAdministrator(&discordgo.Member{Permissions: discordgo.PermissionAdministrator}, roles))
	require.False(t, IsAdministrator(nil, roles))
}

func TestHasRole(t *testing.T) {
	m := &discordgo.Member{Roles: []string{"a", "b"}}
	require.True(t, HasRole(m, "b"))
	require.False(t, HasRole(m, "c"))
	require.False(t, HasRole(m, ""))
}
