package ui

// InvokeMsg carries a deferred task onto the update loop. Controllers
// hand these to the program instead of acting from inside data-change
// callbacks.
type InvokeMsg struct {
	Fn func()
}
