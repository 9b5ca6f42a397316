package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Session
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// Login
	InvalidCredentials ErrorCode = 40103
	EmailRegistered    ErrorCode = 40104

	// User is not allowed to access the resource
	UserNotAllowed ErrorCode = 40301

	NotFound ErrorCode = 40401

	// Duplicate add to a board
	Conflict ErrorCode = 40901

	// The item store or an identity provider failed
	Upstream ErrorCode = 50001

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
