// Package model contains interfaces shared by several packages.
//
// The only content of this package currently is the definition of an
// apex/log compatible logger (see logger.go), which allows library
// packages to log without depending on apex/log directly and allows
// tests to use a discarding or mocked logger.
package model
