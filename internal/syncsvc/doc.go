// Package syncsvc rebases a fork's branch onto its upstream counterpart and
// force-pushes the result, the way a scheduled fork-sync workflow would.
package syncsvc
