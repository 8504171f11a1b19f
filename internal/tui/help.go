package tui

import "github.com/charmbracelet/bubbles/help"

// helpOverlayChrome is the horizontal space the overlay border and padding
// consume; the inner help columns reflow within what remains.
const helpOverlayChrome = 8

// helpOverlay is the full key-binding reference shown over the case list
// when the user presses "?". It drives the bubbles help component off the
// list keymap so the overlay never drifts from the actual bindings.
type helpOverlay struct {
	inner  help.Model
	keymap KeyMap
}

func newHelpOverlay(keymap KeyMap) helpOverlay {
	h := help.New()
	h.ShowAll = true
	return helpOverlay{inner: h, keymap: keymap}
}

func (o helpOverlay) View(width int) string {
	o.inner.Width = width - helpOverlayChrome
	body := titleStyle.Render("Key bindings") + "\n\n" + o.inner.View(o.keymap)
	return helpOverlayStyle.Render(body)
}
