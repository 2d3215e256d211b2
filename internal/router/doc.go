// Package router maps the navigation state to and from a path-and-query
// location and keeps the two in sync across back/forward moves.
//
// Locations look like "/", "/category/<id>" and "/app/<name>", with optional
// store and filter query parameters. Unknown paths degrade to the store
// overview. History plays the host environment's part: navigation pushes
// entries, and Back, Forward or Visit notify the router, which re-parses
// the current location. App routes resolve their package from the cache
// lazily; Resolve fills it in without a new navigation.
package router
