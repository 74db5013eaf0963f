package common

// AuthHeaderName is the HTTP header carrying the bearer session token.
const AuthHeaderName = "Authorization"

// AuthScheme is the expected token scheme inside AuthHeaderName.
const AuthScheme = "Bearer"
