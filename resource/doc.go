// Package resource tracks live host handles behind small integer ids.
//
// A Table maps a Handle to a Go value tagged with a caller-defined Kind.
// Handles are never 0, so 0 can mean "none" wherever a handle crosses into
// wasm, for example as an externref payload.
//
//	table := resource.NewTable()
//	h := table.Insert(kindModule, mod)
//	v, ok := table.Get(h)
//	table.Remove(h)
//
// # Observers
//
// Observers receive an Event for every insertion and removal:
//
//	type counter struct{ live int }
//
//	func (c *counter) OnResourceEvent(e resource.Event) {
//	    switch e.Type {
//	    case resource.EventCreated:
//	        c.live++
//	    case resource.EventDropped:
//	        c.live--
//	    }
//	}
//
//	table.Subscribe(&counter{})
//
// Clear removes every remaining entry and notifies observers for each.
// Close discards entries silently and refuses further inserts, so owners
// that report lifecycle events call Clear before Close.
package resource
