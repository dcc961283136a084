// Package sitegen turns submitted portfolio form data into rendered HTML pages.
//
// A SiteRequest is validated at the boundary (ParseRequest), then a Generator
// assigns it a fresh random key and renders it through a Renderer. The
// generator never persists anything; storing the page is the caller's job.
package sitegen
