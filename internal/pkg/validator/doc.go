// Package validator provides a small validation abstraction for request and
// dependency structs.
//
// Business code depends on the Validator interface; the go-playground v10
// implementation adds English messages and the project's custom rules.
package validator
