// Package keepalive prevents scheduled-automation expiry on dormant
// repositories by recording an empty commit once the branch has been idle
// longer than a configured threshold.
package keepalive
