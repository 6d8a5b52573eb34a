// Package uniuri generates random strings good for use in URIs to identify
// unique objects.
//
// It uses crypto/rand and rejects byte values above the usable range to avoid
// modulo bias when mapping random bytes onto the character set.
package uniuri
