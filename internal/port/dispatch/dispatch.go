// Package dispatch defines the fire-and-forget delivery submission port.
package dispatch

import "github.com/Kondo2021/redmine-messenger/internal/wire"

// Dispatcher accepts a delivery and returns immediately. Submissions are
// independent: no ordering between deliveries, no deduplication, no result
// reported back to the caller.
type Dispatcher interface {
	Submit(req wire.Request)
}
