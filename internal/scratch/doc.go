// Package scratch manages the shared scratch directory.
//
// Set tracks the files one job creates so they can be released together on
// every exit path. Sweep removes stale files left by crashed processes; its
// age threshold is expected to exceed any plausible job duration.
package scratch
