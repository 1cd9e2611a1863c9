// Package posts implements the content repository: it scans a directory of
// Markdown files, loads each one into an interfaces.Post and derives the
// date ordered, category filtered listings consumed by page renderers.
//
// The base Repository re-reads the content store on every call. The
// CachedRepository decorator memoizes results until invalidated, which the
// Watcher does when files change.
package posts
