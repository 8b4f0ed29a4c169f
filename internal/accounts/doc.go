// Package accounts reads the OS account database (passwd, group, shadow).
//
// Every lookup re-reads the files, so results reflect the host state at the
// time of the call. The package never modifies the database.
package accounts
