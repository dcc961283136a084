/*
Package sitestore persists rendered portfolio pages on the local filesystem.

A Store owns a single root directory. Every page lives in exactly one file named
"{key}.html" directly under that root. Keys are opaque, path-safe tokens
produced by the generator; the store validates them on every call and refuses
anything that could resolve outside its root.

Writes go through a temporary file and an atomic rename, so concurrent readers
observe either no page or the complete page, never a partial write. Pages are
never overwritten or deleted by the store.
*/
package sitestore
