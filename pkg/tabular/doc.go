// Package tabular holds the pure transformations applied to worksheets after
// they leave a store: header normalization, date parsing, display lists,
// reference lookup, status derivation, and identifier allocation.
//
// Nothing in this package fails on bad data. Malformed cells degrade to
// empty values and missing references degrade to the configured fallback;
// only store errors are returned to the caller.
package tabular
