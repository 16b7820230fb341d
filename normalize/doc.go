// Package normalize cleans raw fetched content into documents ready for
// embedding: markup stripped, entities unescaped, whitespace collapsed,
// words lemmatized, and source metadata folded in. The normalizer is pure;
// all I/O happens in fetch.
package normalize
