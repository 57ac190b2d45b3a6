package model

// User represents an account record as stored in the `users` table. The
// password itself is never stored; only its salted PBKDF2 digest together
// with the random salt it was derived with. Balance is an integer amount
// debited by payments and credited back by refunds, and must never go
// negative.
//
// Fields:
//  Username     – unique account name, primary key.
//  PasswordHash – PBKDF2 digest of the password.
//  Salt         – random salt the digest was derived with.
//  Balance      – current account balance.
type User struct {
	Username     string // users.username
	PasswordHash []byte // users.hash
	Salt         []byte // users.salt
	Balance      int    // users.balance
}
