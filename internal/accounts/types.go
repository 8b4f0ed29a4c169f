package accounts

type PasswdEntry struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

type ShadowEntry struct {
	Name   string
	Hash   string
	Expire string
}

type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

// Identity is the display-oriented view of an account.
type Identity struct {
	Username string `json:"username"`
	UID      int    `json:"uid"`
	GID      int    `json:"gid"`
	Home     string `json:"homeDirectory"`
	Shell    string `json:"shell"`
	FullName string `json:"fullName"`
}

func (e *PasswdEntry) Identity() Identity {
	return Identity{
		Username: e.Name,
		UID:      e.UID,
		GID:      e.GID,
		Home:     e.Home,
		Shell:    e.Shell,
		FullName: fullName(e.Gecos),
	}
}

// Member is an account identity with the names of its groups.
type Member struct {
	Identity
	Groups []string
}
