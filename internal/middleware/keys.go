package middleware

const (
	CtxClaimsKey    = "authClaims"
	CtxAccountIDKey = "accountID"
	CtxAccountKey   = "account"
	CtxRequestIDKey = "requestID"
)
