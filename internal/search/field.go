package search

import "peerscope/internal/feed"

// FieldController owns the text of one section's search field. The
// widget layer writes into it; query consumers observe it.
type FieldController struct {
	query         *feed.String
	startsFocused bool
}

// NewFieldController creates a field controller seeded with initial
// text. startsFocused tells the widget layer to focus the field as
// soon as it appears.
func NewFieldController(initial string, startsFocused bool) *FieldController {
	return &FieldController{
		query:         feed.NewString(initial),
		startsFocused: startsFocused,
	}
}

// Query returns the current field text
func (f *FieldController) Query() string {
	return f.query.Get()
}

// SetQuery replaces the field text
func (f *FieldController) SetQuery(text string) {
	f.query.Set(text)
}

// ObserveQuery replays the current text to fn, then delivers changes.
// Returns a cancel function.
func (f *FieldController) ObserveQuery(fn func(string)) func() {
	return f.query.Observe(fn)
}

// StartsFocused reports whether the field should grab focus when shown
func (f *FieldController) StartsFocused() bool {
	return f.startsFocused
}
