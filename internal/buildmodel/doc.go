// Package buildmodel contains the data model shared by the packages
// that fetch, build, merge, and unify OpenSSL for Apple platforms.
package buildmodel
