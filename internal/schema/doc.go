// Package schema models the configuration schema container-app packages ship
// (config.yml) and the flat string values stored in their env files.
//
// A Schema is an ordered list of Groups, each an ordered list of Fields. Field
// types form a closed set (string, integer, boolean, enum, password, path);
// adding a type means extending FieldTypes and every switch over it.
//
// Values are always strings. MergeDefaults overlays persisted values on the
// schema defaults and is the single place initial form state comes from.
//
// Check validates the structural invariants: unique field ids, options only
// (and always) on enum fields, min/max only on integer fields.
package schema
