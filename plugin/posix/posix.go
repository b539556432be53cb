// Package posix is a built-in post-processor adapter that resolves a
// well-known POSIX account-mapping obligation's login/primary-group hints
// into uid/gid via the operating system's passwd and group databases,
// using os/user's reentrant-lookup-backed API as the idiomatic stand-in for
// getpwnam_r/getgrnam_r.
package posix

import (
	"fmt"
	"os/user"

	"github.com/argus-authz/pep-client-go/internal/logging"
	"github.com/argus-authz/pep-client-go/xacml"
)

const name = "posix"

// Obligation and attribute-assignment identifiers for the well-known POSIX
// account-map obligation and the obligations this adapter emits.
const (
	obligationAccountMap  = "urn:example:obligation:posix-account-map"
	assignmentLogin       = "login"
	assignmentPrimaryGrp  = "primary-group"
	obligationUsername    = "urn:example:obligation:posix-username"
	obligationUIDGID      = "urn:example:obligation:posix-uidgid"
	obligationSecondaryGr = "urn:example:obligation:posix-secondary-gids"
)

// Adapter implements plugin.PostProcessor.
type Adapter struct {
	lookupUser      func(username string) (*user.User, error)
	lookupGroup     func(name string) (*user.Group, error)
	groupIdsOfUsers func(u *user.User) ([]string, error)
}

// New creates the POSIX account-resolution adapter using the real
// operating-system passwd/group databases.
func New() *Adapter {
	return &Adapter{
		lookupUser:  user.Lookup,
		lookupGroup: user.LookupGroup,
		groupIdsOfUsers: func(u *user.User) ([]string, error) {
			return u.GroupIds()
		},
	}
}

func (a *Adapter) Name() string { return name }

func (a *Adapter) Init() error { return nil }

func (a *Adapter) Destroy() error { return nil }

// Process resolves the posix-account-map obligation on every Permit
// Result, emitting posix-username, posix-uidgid, and (best-effort)
// posix-secondary-gids obligations. A failed secondary-group lookup omits
// only the secondary-gids obligation.
func (a *Adapter) Process(req *xacml.Request, resp *xacml.Response) error {
	for _, result := range resp.Results {
		if result.Decision != xacml.Permit {
			continue
		}
		for _, ob := range result.Obligations {
			if ob.ID != obligationAccountMap {
				continue
			}
			login, primaryGroup := accountHints(ob)
			if login == "" {
				continue
			}
			if err := a.resolve(result, login, primaryGroup); err != nil {
				logging.L().Warn("posix: account resolution failed", "login", login, "error", err)
			}
		}
	}
	return nil
}

func accountHints(ob *xacml.Obligation) (login, primaryGroup string) {
	for _, a := range ob.AttributeAssignments {
		if !a.HasID || a.Value == nil {
			continue
		}
		switch a.ID {
		case assignmentLogin:
			login = *a.Value
		case assignmentPrimaryGrp:
			primaryGroup = *a.Value
		}
	}
	return
}

func (a *Adapter) resolve(result *xacml.Result, login, primaryGroup string) error {
	u, err := a.lookupUser(login)
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", login, err)
	}

	gid := u.Gid
	if primaryGroup != "" {
		g, err := a.lookupGroup(primaryGroup)
		if err != nil {
			return fmt.Errorf("looking up group %q: %w", primaryGroup, err)
		}
		gid = g.Gid
	}

	result.Obligations = append(result.Obligations, singleAssignment(obligationUsername, "username", u.Username))
	result.Obligations = append(result.Obligations, uidGidObligation(u.Uid, gid))

	if gids, err := a.groupIdsOfUsers(u); err != nil {
		logging.L().Warn("posix: secondary group lookup failed, omitting obligation", "login", login, "error", err)
	} else {
		result.Obligations = append(result.Obligations, secondaryGidsObligation(gids))
	}
	return nil
}

func singleAssignment(obligationID, assignmentID, value string) *xacml.Obligation {
	ob := xacml.NewObligation(obligationID)
	ob.FulfillOn = xacml.FulfillOnPermit
	a := xacml.NewAttributeAssignment()
	_ = a.SetID(assignmentID)
	a.SetValue(value)
	ob.AttributeAssignments = append(ob.AttributeAssignments, a)
	return ob
}

func uidGidObligation(uid, gid string) *xacml.Obligation {
	ob := xacml.NewObligation(obligationUIDGID)
	ob.FulfillOn = xacml.FulfillOnPermit

	uidAssign := xacml.NewAttributeAssignment()
	_ = uidAssign.SetID("uid")
	uidAssign.SetValue(uid)

	gidAssign := xacml.NewAttributeAssignment()
	_ = gidAssign.SetID("gid")
	gidAssign.SetValue(gid)

	ob.AttributeAssignments = append(ob.AttributeAssignments, uidAssign, gidAssign)
	return ob
}

func secondaryGidsObligation(gids []string) *xacml.Obligation {
	ob := xacml.NewObligation(obligationSecondaryGr)
	ob.FulfillOn = xacml.FulfillOnPermit
	for _, gid := range gids {
		a := xacml.NewAttributeAssignment()
		_ = a.SetID("gid")
		a.SetValue(gid)
		ob.AttributeAssignments = append(ob.AttributeAssignments, a)
	}
	return ob
}
