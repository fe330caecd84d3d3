// Package core carries shared gateway metadata.
package core

const VERSION = "0.1.0"
