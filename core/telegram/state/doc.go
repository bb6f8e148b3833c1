// Package state provides a lightweight FSM/session manager for Telegram bots.
// Every user holds at most one conversational state at a time; states carry an
// optional payload and expire lazily after a configurable TTL. The package is
// intentionally domain-agnostic so it can be reused across bots.
package state
