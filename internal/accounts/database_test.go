package accounts

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/hostauth/internal/hostfs"
)

const testPasswd = `root:x:0:0:root:/root:/bin/bash
daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin
# comment line
alice:x:1000:1000:Alice Liddell,,,:/home/alice:/bin/bash
bob:x:1001:1001:Bob:/home/bob:/bin/zsh
broken:x:notanumber:1002::/home/broken:/bin/sh
nobody:x:65534:65534:nobody:/nonexistent:/usr/sbin/nologin
carol:x:1002:100::/home/carol:/bin/sh
`

const testGroup = `root:x:0:
sudo:x:27:alice
users:x:100:
alice:x:1000:
bob:x:1001:
docker:x:998:bob,alice
`

const testShadow = `root:!:19000:0:99999:7:::
alice:$6$saltsalt$hash:19000:0:99999:7:::
`

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	root := t.TempDir()
	etc := filepath.Join(root, "etc")
	require.NoError(t, os.MkdirAll(etc, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(etc, "passwd"), []byte(testPasswd), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(etc, "group"), []byte(testGroup), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(etc, "shadow"), []byte(testShadow), 0o600))
	return NewDatabase(hostfs.New(root))
}

func TestLookup(t *testing.T) {
	db := newTestDatabase(t)

	id, err := db.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, Identity{
		Username: "alice",
		UID:      1000,
		GID:      1000,
		Home:     "/home/alice",
		Shell:    "/bin/bash",
		FullName: "Alice Liddell",
	}, id)

	_, err = db.Lookup("mallory")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = db.Lookup("broken")
	assert.ErrorIs(t, err, ErrAccountParse)
}

func TestLookupMissingDatabase(t *testing.T) {
	db := NewDatabase(hostfs.New(t.TempDir()))
	_, err := db.Lookup("alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestGroups(t *testing.T) {
	db := newTestDatabase(t)

	groups, err := db.Groups("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "docker", "sudo"}, groups)

	groups, err = db.Groups("carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, groups)

	_, err = db.Groups("mallory")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListMembers(t *testing.T) {
	db := newTestDatabase(t)

	members, err := db.ListMembers(1000, 65533)
	require.NoError(t, err)
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Username)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
	assert.Equal(t, []string{"alice", "docker", "sudo"}, members[0].Groups)
	assert.Equal(t, []string{"bob", "docker"}, members[1].Groups)
	assert.Equal(t, []string{"users"}, members[2].Groups)
	assert.Equal(t, 1000, members[0].UID)

	members, err = db.ListMembers(1001, 1001)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "bob", members[0].Username)
}

func TestListMembersNeedsGroupFile(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, os.Remove(filepath.Join(db.fs.Root, "etc", "group")))

	_, err := db.ListMembers(1000, 65533)
	assert.Error(t, err)
}

func TestShadow(t *testing.T) {
	db := newTestDatabase(t)

	e, err := db.Shadow("alice")
	require.NoError(t, err)
	assert.Equal(t, "$6$saltsalt$hash", e.Hash)
	assert.False(t, e.Locked())

	e, err = db.Shadow("root")
	require.NoError(t, err)
	assert.True(t, e.Locked())

	_, err = db.Shadow("bob")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestShadowExpiry(t *testing.T) {
	f, err := ParseShadow([]byte("old:$6$s$h:19000:0:99999:7::1:\nopen:$6$s$h:19000:0:99999:7:::\n"))
	require.NoError(t, err)
	assert.Equal(t, "1", f.Find("old").Expire)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	today := now.Unix() / 86400
	cases := map[string]bool{
		"":                             false,
		"-1":                           false,
		"1":                            true,
		"0":                            true,
		"junk":                         true,
		strconv.FormatInt(today, 10):   true,
		strconv.FormatInt(today+1, 10): false,
	}
	for field, want := range cases {
		assert.Equal(t, want, (&ShadowEntry{Expire: field}).Expired(now), field)
	}
	assert.False(t, f.Find("open").Expired(now))
}

func TestValidUsername(t *testing.T) {
	valid := []string{"alice", "_svc", "bob-2", "a"}
	invalid := []string{"", "-rf", "Alice", "al ice", "alice;id", "1user", "a$(id)", "toolongusername_abcdefghijklmnopq"}
	for _, u := range valid {
		assert.True(t, ValidUsername(u), u)
	}
	for _, u := range invalid {
		assert.False(t, ValidUsername(u), u)
	}
}
