// Package mdxld parses and serializes structured text documents: a delimited
// header block followed by a free-form body.
//
// Header keys prefixed with a sigil ("@" or "$") that name a reserved linked
// data property (type, context, id, language, base, vocab, list, set, reverse)
// are lifted into Metadata. Every other key, including unreserved sigil keys,
// stays in Data untouched.
//
//	---
//	$type: BlogPosting
//	$set: [go, mdx, go]
//	title: Hello
//	---
//	# Body
//
// YAML headers are fenced by "---" lines; TOML headers by "+++" lines.
package mdxld
