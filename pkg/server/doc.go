// Package server is a small HTTP server that puts the hooks behind a
// browser-facing API. It is what `hooks serve` runs.
//
// Routes:
//
//	GET    /api/values           list keys (?prefix= filters)
//	GET    /api/values/{key}     stored JSON value, 404 when absent
//	PUT    /api/values/{key}     store the JSON request body
//	DELETE /api/values/{key}     remove the key
//	GET    /api/theme            dark mode preference, defaulting to the
//	                             Sec-CH-Prefers-Color-Scheme client hint
//	PUT    /api/theme            {"darkModeEnabled": bool}
//	POST   /api/theme/toggle     flip the preference
//	GET    /search               q and page bound to the query string;
//	                             non-canonical URLs are redirected
//	GET    /ws/values?key=...    websocket change feed
//	GET    /metrics              Prometheus metrics
//	GET    /healthz
//
// Change feed clients receive a FeedMessage for every watched key when it
// is subscribed and after every change, and may send FeedCommand messages
// to watch or unwatch more keys. The feed needs a medium that supports
// watching (memory, or a cache or instrumented wrapper around it).
package server
