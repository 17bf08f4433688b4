// Package auth authenticates API callers.
//
// Accounts come from the configuration file; each has an Argon2id password
// hash and one of two roles. Viewers may read, admins may also write.
// Successful logins get a short-lived HS256 JWT. WebSocket clients exchange
// their JWT for a single-use ticket (TicketStore) before connecting.
package auth
