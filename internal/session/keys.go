package session

import "time"

const (
	// session:{session_id} -> JSON Session
	keySession = "session:%s"
	// user_sessions:{user_id} -> set of session ids, used to revoke all
	keyUserSessions = "user_sessions:%s"
	// otp:{purpose}:{email} -> 6 digit code
	keyCode = "otp:%s:%s"
	// otp_attempts:{purpose}:{email} -> failed verification counter
	keyCodeAttempts = "otp_attempts:%s:%s"
)

var (
	TTLCode         = 10 * time.Minute
	MaxCodeAttempts = int64(5)
)
