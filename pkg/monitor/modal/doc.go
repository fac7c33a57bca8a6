// Package modal draws bordered dialogs for the terminal console and keeps
// their mouse hit regions in step with what was drawn.
//
// A Modal is rebuilt from sections on every render. Render measures each
// section after drawing it, so the regions registered on the mouse handler
// always match the output:
//
//	m := modal.New("Add SKU", modal.WithWidth(60), modal.WithCloseButton(true)).
//	    AddSection(modal.Text("The SKU code must be unique.")).
//	    AddSection(modal.Spacer())
//	m = modal.New(m.Title(), modal.WithFooter(modal.Buttons(
//	    modal.Btn(" Save ", "save"),
//	    modal.Btn(" Cancel ", "cancel"),
//	)))
//
//	// In View():
//	box := m.Render(screenW, screenH, handler)
//	screen = modal.Place(modal.Dim(screen), box, x, y)
//
//	// In Update():
//	if action, cmd := m.HandleKey(keyMsg); action != "" { ... }
//
// Stacked dialogs are rendered bottom to top. Entries below the backdrop
// use WithInert so they neither take focus nor register regions, and
// WithOffset displaces each one by its stacking offset.
//
// Focus and body scroll live on the Modal; carry them into the next build
// with WithFocus and WithScroll.
package modal
