// Package transport adapts upstream chunk deliveries to the Source
// interface consumed by the stream pipeline. Adapters exist for
// server-sent events, WebSocket connections, and in-process channels.
package transport
