// Package analytics derives the dashboard views from a policy snapshot.
//
// Every function is a pure transform over the slice it is given: nothing is
// cached and inputs are never modified. Empty categorical fields are counted
// under models.Unknown.
package analytics
