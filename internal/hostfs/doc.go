// Package hostfs provides read access to the host's account database files.
//
// The service can run directly on the host (Root = "/") or in a container with
// the host filesystem bind-mounted read-only, e.g.:
//
//	/etc/passwd  -> /host/etc/passwd
//	/etc/group   -> /host/etc/group
//	/etc/shadow  -> /host/etc/shadow
//
// Nothing in this package writes to the host.
package hostfs
