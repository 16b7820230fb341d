// Package session manages conversation sessions and their message history.
//
// A session moves through a closed lifecycle: ACTIVE and PAUSED alternate
// freely, either may become ARCHIVED, and ARCHIVED is terminal. The Manager
// enforces this graph under a per-session lock; History keeps the ordered
// message log.
package session
