// Package web serves the spa booking front end.
//
// The server is a backend-for-frontend: every browser session owns an
// identity store and a synchronizer held in memory, pages are guarded by
// the route table in routes.yaml, and a websocket channel pushes identity
// changes so open tabs can redirect when access is lost.
package web
