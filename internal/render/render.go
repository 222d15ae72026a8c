// Package render loads pages in a browser and captures their rendered markup
// and styles.
package render

import (
	"time"
)

// Renderer opens pages in a rendering engine.
type Renderer interface {
	// Load navigates to url and returns once network activity has settled or
	// timeout has elapsed. On error the returned Page may still be non-nil and
	// usable for a best-effort capture.
	Load(url string, timeout time.Duration) (Page, error)
}

// Page is a single loaded document.
type Page interface {
	// Wait pauses for d so deferred content can settle.
	Wait(d time.Duration) error
	// Capture returns the serialized document and the text of every readable
	// CSS rule on the page.
	Capture() (markup, styles string, err error)
	// Close releases the page.
	Close()
}
