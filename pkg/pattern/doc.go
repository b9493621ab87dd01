// Package pattern evaluates mutelist patterns against candidate strings
// such as account ids, regions, resource identifiers and tags.
//
// Three pattern forms are recognised:
//
//	"*"              matches anything, including the empty string
//	"us-*-1"         glob: '*' is zero or more of any character, everything
//	                 else is literal and case-sensitive, whole-string match
//	"/^arn:.*:root$/" regular expression between slashes, unanchored
//	                 (use ^ and $ to anchor), compiled once per Cache
//
// Tag patterns have the form key:value, where both halves are globs.
// A tag pattern without ':' matches any tag with that exact key.
// A regex tag pattern is matched against "key:value".
//
// Matching never fails: a malformed regular expression matches nothing.
// Malformed patterns are reported by Validate, which document loaders
// call once at load time.
package pattern
