// Package http provides HTTP handlers and middleware for the room reservation API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","user":{"id","email","display_name","role"}}; the token
//     is also set in the `session_token` cookie.
//   - POST /logout: clears the session cookie.
//   - GET /rooms: catalog search. Query: q, location, min_capacity, feature, and
//     date/start/end to keep only rooms free for that slot.
//   - GET /rooms/{id}, GET /rooms/{id}/availability?date=YYYY-MM-DD: a room and its
//     free gaps within opening hours plus its PENDING and CONFIRMED reservations.
//   - GET /reservations: status, room_id, requester_id, from, to. Professors only
//     ever see their own reservations.
//   - POST /reservations: body {"room_id","date","start","end"}; creates a PENDING
//     reservation.
//   - GET /reservations/{id}; POST /reservations/{id}/confirm|reject|cancel.
//   - GET /stats?date=YYYY-MM-DD: administrator dashboard figures.
//   - GET /healthz.
//
// Every endpoint except /login, /logout and /healthz requires
// `Authorization: Bearer <token>` or the session cookie. Errors carry a French
// `message` and a stable `error_code`; SLOT_CONFLICT responses name the blocking
// reservation and its slot, and BUSY responses come with `Retry-After`.
package http
