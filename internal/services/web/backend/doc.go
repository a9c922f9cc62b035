// Package backend is the typed client for the spa REST API.
//
// One Client serves one browser session: it carries that session's cookie
// jar, so backend calls made on behalf of different browsers never share a
// backend session. Failures are returned as platform/errors values so page
// handlers can map them without knowing HTTP details.
package backend
