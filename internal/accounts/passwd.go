package accounts

import (
	"bytes"
	"sort"
)

type PasswdFile struct {
	pf parsedFile[PasswdEntry]
}

func ParsePasswd(b []byte) (*PasswdFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	var pf parsedFile[PasswdEntry]
	for _, line := range lines {
		if skipLine(line) {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 7 {
			pf.markMalformed(line)
			continue
		}
		uid, err := atoi(parts[2], "passwd.uid")
		if err != nil {
			pf.markMalformed(line)
			continue
		}
		gid, err := atoi(parts[3], "passwd.gid")
		if err != nil {
			pf.markMalformed(line)
			continue
		}
		pf.entries = append(pf.entries, &PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    uid,
			GID:    gid,
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		})
	}
	return &PasswdFile{pf: pf}, nil
}

// Find returns the entry for name, ErrAccountParse if the record exists but is
// malformed, or ErrUserNotFound.
func (f *PasswdFile) Find(name string) (*PasswdEntry, error) {
	for _, e := range f.pf.entries {
		if e.Name == name {
			return e, nil
		}
	}
	if f.pf.isMalformed(name) {
		return nil, ErrAccountParse
	}
	return nil, ErrUserNotFound
}

// InUIDRange lists entries with min <= UID <= max, sorted by UID.
func (f *PasswdFile) InUIDRange(min, max int) []PasswdEntry {
	out := make([]PasswdEntry, 0)
	for _, e := range f.pf.entries {
		if e.UID >= min && e.UID <= max {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}
