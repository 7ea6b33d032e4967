// Package discovery finds prospective luxury-service partners. A request is
// planned into search queries, searched on the web, distilled by a language
// model into ranked candidates and optionally followed by automatic invites
// to the best matches. Results are cached per request fingerprint.
package discovery
