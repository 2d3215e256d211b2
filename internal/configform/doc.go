// Package configform implements the schema-driven configuration form: per
// field-type presentation rules, validation, and the edit/save lifecycle.
//
// A Form starts Clean with persisted values merged over schema defaults.
// Edits move it to Dirty; Save validates locally, then moves through Saving
// back to Clean on success or Dirty on failure. Failed saves keep the user's
// input. Password values are masked for display and scrubbed from every
// error and warning the form produces.
package configform
