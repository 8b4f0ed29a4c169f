package accounts

import (
	"errors"
	"fmt"

	"github.com/hnrobert/hostauth/internal/hostfs"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrAccountParse = errors.New("malformed account record")
)

// Database reads account records from a host filesystem.
type Database struct {
	fs *hostfs.FS
}

func NewDatabase(fs *hostfs.FS) *Database {
	return &Database{fs: fs}
}

func (d *Database) passwd() (*PasswdFile, error) {
	b, err := d.fs.ReadFile(hostfs.EtcPasswdRel)
	if err != nil {
		return nil, fmt.Errorf("read passwd: %w", err)
	}
	return ParsePasswd(b)
}

func (d *Database) group() (*GroupFile, error) {
	b, err := d.fs.ReadFile(hostfs.EtcGroupRel)
	if err != nil {
		return nil, fmt.Errorf("read group: %w", err)
	}
	return ParseGroup(b)
}

// Lookup returns the identity of username.
func (d *Database) Lookup(username string) (Identity, error) {
	pw, err := d.passwd()
	if err != nil {
		return Identity{}, err
	}
	e, err := pw.Find(username)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %s", err, username)
	}
	return e.Identity(), nil
}

// Groups returns every group username belongs to, primary group included.
func (d *Database) Groups(username string) ([]string, error) {
	pw, err := d.passwd()
	if err != nil {
		return nil, err
	}
	e, err := pw.Find(username)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, username)
	}
	gr, err := d.group()
	if err != nil {
		return nil, err
	}
	return gr.MemberOf(username, e.GID), nil
}

// ListMembers returns accounts with min <= UID <= max, sorted by UID, each
// with its groups. passwd and group are read once per call.
func (d *Database) ListMembers(min, max int) ([]Member, error) {
	pw, err := d.passwd()
	if err != nil {
		return nil, err
	}
	gr, err := d.group()
	if err != nil {
		return nil, err
	}
	entries := pw.InUIDRange(min, max)
	out := make([]Member, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		out = append(out, Member{Identity: e.Identity(), Groups: gr.MemberOf(e.Name, e.GID)})
	}
	return out, nil
}

// Shadow returns the shadow record of username. Reading the shadow file
// usually requires root; callers treat any error as "not available".
func (d *Database) Shadow(username string) (*ShadowEntry, error) {
	b, err := d.fs.ReadFile(hostfs.EtcShadowRel)
	if err != nil {
		return nil, fmt.Errorf("read shadow: %w", err)
	}
	sh, err := ParseShadow(b)
	if err != nil {
		return nil, err
	}
	e := sh.Find(username)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return e, nil
}
