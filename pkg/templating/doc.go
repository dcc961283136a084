/*
Package templating provides a filesystem-based template manager for portfolio
pages. Templates are plain html/template files living in a single directory:
full page templates end in ".tmpl.html" and shared partials end in ".part.html".

The manager ships a set of embedded default templates which can be seeded into
an empty template directory, supports hot-reloading of templates from disk and
exposes a small function library for turning loosely structured form input
(comma separated skill lists, multi-paragraph text) into markup.
*/
package templating
