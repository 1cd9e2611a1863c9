// Package markdown holds the content-format building blocks of the post
// pipeline: splitting frontmatter from a post body and rendering the body
// from Markdown into HTML with goldmark.
package markdown
