// Package emit renders emitted declarations back to source text.
//
// The output is canonical rather than faithful: input formatting and
// comments are not preserved. Indentation is four spaces, items are
// separated by one blank line, and consecutive use declarations are
// grouped. Rendering the same items always yields the same bytes, which
// is what the session store hashes.
package emit
