// Package state provides a small per-user session store for conversational bots.
// It is domain-agnostic so it can be reused across bots.
package state
