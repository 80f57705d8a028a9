// Package main is the upmail command. It relays transactional email through an
// external HTTP API, logs every attempt and serves an admin UI for the API key,
// the sender settings and the email log.
package main
