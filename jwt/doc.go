// Package jwt issues and decodes the two signed token kinds used by goNotes:
// short-lived access tokens and longer-lived refresh tokens. Both carry the
// user id as subject and a "type" claim; validity ends exactly at exp.
package jwt
