// Package uniuri generates random strings for initial account passwords.
package uniuri
