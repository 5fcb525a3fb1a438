/**
 * @description
 * Read-only identity models referenced by the billing core. Users and
 * payment methods are owned by other services; billing only resolves them
 * by email or id and never mutates them.
 */
package domain

import "time"

// User is the customer identity resolved from a webhook's customerEmail.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// PaymentMethod is a stored payment instrument. The card number is kept
// masked; this service never handles raw PANs.
type PaymentMethod struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Type           string    `json:"type"`
	CardNumber     string    `json:"card_number"`
	ExpirationDate time.Time `json:"expiration_date"`
}
