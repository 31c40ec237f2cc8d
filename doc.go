// Package accounts provides account registration with email
// verification, plus the authentication primitives that sit behind it
// (credential hashing, JWT session tokens, context-bound principals).
//
// Verification lifecycle:
//   - Register creates an unverified account carrying its first
//     verification token and dispatches the verification mail in one
//     step, so an account never exists without a token.
//   - Verify moves an account to its verified state exactly once; a
//     replayed valid token is a no-op success that still establishes a
//     session. Unverified is the only state a resend can refresh.
//   - ResendVerification is gated: a new token is only issued when the
//     previous one is older than ResendThreshold. Tripping the gate
//     leaves all state untouched.
//
// Login and sessions:
//   - Auther resolves an identifier as email first, then nickname, and
//     folds every credential failure into one uniform error so callers
//     cannot probe which field was wrong.
//   - Sessions are plain values bound to a context; TokenForSession and
//     SessionFromToken convert between sessions and signed JWTs for
//     whatever transport sits on top.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and
//     the verification state machine to describe registration, token,
//     and login events. Sinks run best-effort (errors are logged) so
//     you can forward to a database or queue without blocking
//     authentication.
package accounts
