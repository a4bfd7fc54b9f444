// Package cli constructs the forkward command-line interface, wiring the
// Cobra command hierarchy, configuration loader, and structured logging
// primitives shared by the fork maintenance commands.
package cli
