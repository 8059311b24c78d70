package access

import (
	"fmt"
	"strings"

	internalstrings "github.com/amonks/taskowner/internal/strings"
)

// Kind identifies which rule granted access.
type Kind int

const (
	// KindSuperuser means the user is a superuser.
	KindSuperuser Kind = iota + 1

	// KindPublicProject means the task's project is public.
	KindPublicProject

	// KindDirectGrant means the user holds view_project on the project.
	KindDirectGrant

	// KindGroupGrant means one of the user's groups holds view_project on
	// the project.
	KindGroupGrant
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindSuperuser:
		return "superuser"
	case KindPublicProject:
		return "public"
	case KindDirectGrant:
		return "direct"
	case KindGroupGrant:
		return "group"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Reason is one entry of the reason trail.
type Reason struct {
	Kind Kind
	// Group is set for KindGroupGrant.
	Group string
	// Codenames is the full permission set behind a direct or group grant.
	Codenames []string
}

// Superuser returns the superuser reason.
func Superuser() Reason {
	return Reason{Kind: KindSuperuser}
}

// PublicProject returns the public project reason.
func PublicProject() Reason {
	return Reason{Kind: KindPublicProject}
}

// DirectGrant returns a direct grant reason for the user's codenames.
func DirectGrant(codenames []string) Reason {
	return Reason{Kind: KindDirectGrant, Codenames: codenames}
}

// GroupGrant returns a group grant reason.
func GroupGrant(group string, codenames []string) Reason {
	return Reason{Kind: KindGroupGrant, Group: group, Codenames: codenames}
}

// NoAccess is the reason trail of a denied verdict.
const NoAccess = "no access"

// String renders a single reason.
func (r Reason) String() string {
	switch r.Kind {
	case KindSuperuser:
		return "superuser"
	case KindPublicProject:
		return "public project (view)"
	case KindDirectGrant:
		return "direct permissions: " + internalstrings.JoinList(r.Codenames)
	case KindGroupGrant:
		return "group permissions: " + r.groupEntry()
	default:
		return r.Kind.String()
	}
}

func (r Reason) groupEntry() string {
	return r.Group + ": " + internalstrings.JoinList(r.Codenames)
}

// RenderReasons renders the trail as display strings. Consecutive group
// grants collapse into one "group permissions" entry. An empty trail
// renders as ["no access"].
func RenderReasons(reasons []Reason) []string {
	if len(reasons) == 0 {
		return []string{NoAccess}
	}
	out := make([]string, 0, len(reasons))
	var groups []string
	flush := func() {
		if len(groups) == 0 {
			return
		}
		out = append(out, "group permissions: "+strings.Join(groups, internalstrings.ListSeparator))
		groups = nil
	}
	for _, reason := range reasons {
		if reason.Kind == KindGroupGrant {
			groups = append(groups, reason.groupEntry())
			continue
		}
		flush()
		out = append(out, reason.String())
	}
	flush()
	return out
}
