// owner.go - owner/group argument resolution
//
// (c) 2024- Jorn I. Viken <jornv@1337.no>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"github.com/jornv/chowntree/internal/mutate"
)

// parseOwnerSpec splits "[user][:[group]]" into a uid and gid, each
// mutate.Unset when that half is absent. A leading ':' means "group
// only"; no ':' at all means "leave group unchanged".
func parseOwnerSpec(spec string) (uid, gid int, err error) {
	uid, gid = mutate.Unset, mutate.Unset

	userPart, groupPart, hasGroup := strings.Cut(spec, ":")
	if userPart != "" {
		if uid, err = resolveUID(userPart); err != nil {
			return 0, 0, err
		}
	}
	if hasGroup && groupPart != "" {
		if gid, err = resolveGID(groupPart); err != nil {
			return 0, 0, err
		}
	}
	return uid, gid, nil
}

// resolveUID resolves a username or a bare numeric uid. Name lookup
// is tried first so a numeric-looking username still resolves
// correctly; a plain number falls back to being used as the uid
// itself when no such user exists.
func resolveUID(s string) (int, error) {
	if u, err := user.Lookup(s); err == nil {
		n, err := strconv.ParseUint(u.Uid, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("user %s: malformed uid %s: %w", s, u.Uid, err)
		}
		return int(n), nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return int(n), nil
	}
	return 0, fmt.Errorf("no such user: %s", s)
}

// resolveGID is resolveUID's group counterpart.
func resolveGID(s string) (int, error) {
	if g, err := user.LookupGroup(s); err == nil {
		n, err := strconv.ParseUint(g.Gid, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("group %s: malformed gid %s: %w", s, g.Gid, err)
		}
		return int(n), nil
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return int(n), nil
	}
	return 0, fmt.Errorf("no such group: %s", s)
}
