// Package schedule runs fork maintenance on a cron cadence, replacing the
// hosted-CI trigger with a long-lived local daemon.
package schedule
