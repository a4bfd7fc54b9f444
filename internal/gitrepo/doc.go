// Package gitrepo implements repository-level git operations on top of the
// execshell executor, plus structured parsing of remote URLs.
package gitrepo
