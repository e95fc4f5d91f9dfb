// Package timer holds the kitchen countdowns.
//
// A Store owns the set of timers, a Driver decrements the running ones once
// per second, and a Trigger delivers the completion alert for every timer
// that crosses from one second to zero. Timers that reach zero keep their
// running flag: the user clears it by toggling or resetting the timer.
package timer
