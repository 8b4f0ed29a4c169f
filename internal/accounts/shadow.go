package accounts

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

type ShadowFile struct {
	pf parsedFile[ShadowEntry]
}

func ParseShadow(b []byte) (*ShadowFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	var pf parsedFile[ShadowEntry]
	for _, line := range lines {
		if skipLine(line) {
			continue
		}
		parts := parseColonLine(line)
		if len(parts) < 2 {
			pf.markMalformed(line)
			continue
		}
		for len(parts) < 9 {
			parts = append(parts, "")
		}
		pf.entries = append(pf.entries, &ShadowEntry{
			Name:   parts[0],
			Hash:   parts[1],
			Expire: parts[7],
		})
	}
	return &ShadowFile{pf: pf}, nil
}

func (f *ShadowFile) Find(name string) *ShadowEntry {
	for _, e := range f.pf.entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Locked reports whether the entry cannot be used for password login.
func (e *ShadowEntry) Locked() bool {
	h := e.Hash
	return h == "" || h == "x" || h[0] == '!' || h[0] == '*'
}

// Expired reports whether the account expiry date (days since the epoch) is
// on or before now. An empty field never expires; a malformed one counts as
// expired.
func (e *ShadowEntry) Expired(now time.Time) bool {
	f := strings.TrimSpace(e.Expire)
	if f == "" {
		return false
	}
	days, err := strconv.ParseInt(f, 10, 64)
	if err != nil {
		return true
	}
	if days < 0 {
		return false
	}
	return now.Unix()/86400 >= days
}
