package http

// HeartbeatInterval exposes the SSE heartbeat period to the external test package.
var HeartbeatInterval = &heartbeatInterval
