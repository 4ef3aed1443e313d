// Package gateway is the HTTP client for the Coffeecue counter API.
//
// Every call returns a Result classifying the outcome rather than a bare
// error: OK, an authentication failure, a soft block (the server asked us to
// back off), a transport problem, or Degraded (the call never left the
// process). Callers branch on the class, not on error strings.
//
// The client defends the server and itself:
//
//   - consecutive authentication failures trip the shared degraded-mode
//     flag; once tripped, calls short-circuit locally until a fresh
//     credential appears
//   - soft blocks (HTTP 429 or an anti-flicker error body) start a cooldown
//     during which calls short-circuit without network traffic
//   - successive calls are spaced a minimum interval apart; a call arriving
//     early waits, it is not dropped
//
// Tokens come from a TokenSource consulted per request, so credential
// rotation needs no restart.
package gateway
