// Package mail is a thin gateway over the Resend transactional email
// provider. It never returns raw provider errors; every outcome is
// normalized into a Result.
package mail
