package platform

import (
	"sort"

	"github.com/Jacobbrewer1/discordgo"
)

// SubjectKind is the kind of thing a channel overwrite applies to.
type SubjectKind int

const (
	SubjectRole SubjectKind = iota
	SubjectMember
)

// Subject is a role or member that a channel overwrite applies to.
type Subject struct {
	ID   string
	Kind SubjectKind
}

// Role returns the subject for a role. The guild ID is the @everyone role.
func Role(id string) Subject {
	return Subject{ID: id, Kind: SubjectRole}
}

// Member returns the subject for a single guild member.
func Member(id string) Subject {
	return Subject{ID: id, Kind: SubjectMember}
}

func (s Subject) overwriteType() discordgo.PermissionOverwriteType {
	if s.Kind == SubjectMember {
		return discordgo.PermissionOverwriteTypeMember
	}
	return discordgo.PermissionOverwriteTypeRole
}

// Access is what a subject may do in a channel.
type Access struct {
	View bool
	Send bool
}

var (
	// Hidden denies viewing and sending.
	Hidden = Access{}

	// ViewSend allows viewing, reading history and sending.
	ViewSend = Access{View: true, Send: true}
)

const (
	viewBits = discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory
	sendBits = discordgo.PermissionSendMessages
	managed  = viewBits | sendBits
)

func (a Access) bits() (allow, deny int64) {
	if a.View {
		allow |= viewBits
	} else {
		deny |= discordgo.PermissionViewChannel
	}
	if a.Send {
		allow |= sendBits
	} else {
		deny |= sendBits
	}
	return allow, deny
}

// Overwrites is the access of every subject that has an explicit overwrite on a channel.
type Overwrites map[Subject]Access

// Clone returns a copy of o.
func (o Overwrites) Clone() Overwrites {
	c := make(Overwrites, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Equal reports whether o and other hold the same entries.
func (o Overwrites) Equal(other Overwrites) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Diff returns the entries of desired that differ from current and the subjects of current missing from desired.
func Diff(current, desired Overwrites) (set Overwrites, revoke []Subject) {
	set = make(Overwrites)
	for k, v := range desired {
		if cv, ok := current[k]; !ok || cv != v {
			set[k] = v
		}
	}
	for k := range current {
		if _, ok := desired[k]; !ok {
			revoke = append(revoke, k)
		}
	}
	sortSubjects(revoke)
	return set, revoke
}

// FromDiscord reads the managed permission bits of a channel's overwrites.
func FromDiscord(list []*discordgo.PermissionOverwrite) Overwrites {
	o := make(Overwrites, len(list))
	for _, po := range list {
		if po == nil {
			continue
		}
		s := Subject{ID: po.ID, Kind: SubjectRole}
		if po.Type == discordgo.PermissionOverwriteTypeMember {
			s.Kind = SubjectMember
		}
		o[s] = Access{
			View: po.Allow&discordgo.PermissionViewChannel != 0,
			Send: po.Allow&discordgo.PermissionSendMessages != 0,
		}
	}
	return o
}

// Apply returns the overwrites that result from applying set and revoke to list. Permission bits outside
// view, history and send are kept for subjects that are updated. list is not modified.
func Apply(list []*discordgo.PermissionOverwrite, set Overwrites, revoke []Subject) []*discordgo.PermissionOverwrite {
	removed := make(map[Subject]bool, len(revoke))
	for _, s := range revoke {
		removed[s] = true
	}

	seen := make(map[Subject]bool, len(list))
	out := make([]*discordgo.PermissionOverwrite, 0, len(list)+len(set))
	for _, po := range list {
		if po == nil {
			continue
		}
		s := Subject{ID: po.ID, Kind: SubjectRole}
		if po.Type == discordgo.PermissionOverwriteTypeMember {
			s.Kind = SubjectMember
		}
		if removed[s] {
			continue
		}
		seen[s] = true

		cp := *po
		if a, ok := set[s]; ok {
			allow, deny := a.bits()
			cp.Allow = cp.Allow&^managed | allow
			cp.Deny = cp.Deny&^managed | deny
		}
		out = append(out, &cp)
	}

	added := make([]Subject, 0, len(set))
	for s := range set {
		if !seen[s] && !removed[s] {
			added = append(added, s)
		}
	}
	sortSubjects(added)

	for _, s := range added {
		allow, deny := set[s].bits()
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    s.ID,
			Type:  s.overwriteType(),
			Allow: allow,
			Deny:  deny,
		})
	}
	return out
}

// ToDiscord converts o into a fresh overwrite list.
func (o Overwrites) ToDiscord() []*discordgo.PermissionOverwrite {
	return Apply(nil, o, nil)
}

func sortSubjects(list []Subject) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Kind != list[j].Kind {
			return list[i].Kind < list[j].Kind
		}
		return list[i].ID < list[j].ID
	})
}
