// Package status reports how far a fork's branch has drifted from its
// upstream counterpart, enriched with repository metadata from GitHub when
// the gh CLI is available.
package status
