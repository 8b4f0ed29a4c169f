package accounts

import (
	"bytes"
	"sort"
	"strings"
)

type GroupFile struct {
	pf parsedFile[GroupEntry]
}

func ParseGroup(b []byte) (*GroupFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	var pf parsedFile[GroupEntry]
	for _, line := range lines {
		if skipLine(line) {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 4 {
			pf.markMalformed(line)
			continue
		}
		gid, err := atoi(parts[2], "group.gid")
		if err != nil {
			pf.markMalformed(line)
			continue
		}
		members := []string{}
		for _, m := range strings.Split(parts[3], ",") {
			if m = strings.TrimSpace(m); m != "" {
				members = append(members, m)
			}
		}
		pf.entries = append(pf.entries, &GroupEntry{Name: parts[0], Passwd: parts[1], GID: gid, Members: members})
	}
	return &GroupFile{pf: pf}, nil
}

func (f *GroupFile) FindByGID(gid int) *GroupEntry {
	for _, e := range f.pf.entries {
		if e.GID == gid {
			return e
		}
	}
	return nil
}

// MemberOf returns the sorted names of groups listing user as a member, plus
// the group owning primaryGID when it exists.
func (f *GroupFile) MemberOf(user string, primaryGID int) []string {
	seen := map[string]bool{}
	if g := f.FindByGID(primaryGID); g != nil {
		seen[g.Name] = true
	}
	for _, g := range f.pf.entries {
		for _, m := range g.Members {
			if m == user {
				seen[g.Name] = true
				break
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
