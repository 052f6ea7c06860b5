// Package domain models GeoNet earthquake data and the alerting and reporting
// rules built on top of it.
//
// # Data Source
//
// Events come from the GeoNet quake API (https://api.geonet.org.nz/quake).
// The query is fixed to MMI=3, the lowest Modified Mercalli Intensity at which
// people generally start to feel shaking. The response is GeoJSON: a
// "features" list where each feature carries
//
//	properties.publicID   stable event identifier, e.g. "2024p123456"
//	properties.locality   free text, e.g. "20 km north-east of Taupō"
//	properties.magnitude  float, may be missing or null
//	properties.depth      kilometres
//	properties.mmi        integer intensity, -1 when not computed
//	properties.time       ISO-8601 UTC with a trailing "Z"
//	geometry.coordinates  [lon, lat]
//
// GeoNet orders features most recent first. Only the first [FeedLimit] are
// kept and no local re-sorting is done.
//
// # Time Handling
//
// Source timestamps are UTC. They are converted to a single display zone
// (Pacific/Auckland unless configured otherwise) and rendered with
// [DisplayLayout].
//
// # Alerting
//
// An event is major when its magnitude is known and at least the configured
// threshold (4.0 by default). See [BuildAlert].
package domain
