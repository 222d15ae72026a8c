package types

// PageRecord is what one fetch produces. It lives only while its page is
// being processed.
type PageRecord struct {
	URL    string
	Markup string
	Styles string
	// Degraded is set when the page did not load cleanly and the content is
	// best-effort.
	Degraded bool
}
