// Package ingester implements ArtStore's stateless write router: it
// authenticates an incoming upload, asks the selector for a writable
// storage element, and streams the file body through to it before
// registering the result with the admin-module's file registry.
package ingester
