// Package audit delivers authentication audit events to a sink off the
// request path.
//
// The [Dispatcher] owns a bounded queue and one delivery goroutine. When the
// queue is full it either blocks the caller (bounded by the caller's context)
// or drops the event and counts it, depending on [Config.DropIfFull].
// Which events to emit is decided by the engine, not here.
package audit
