package services

import (
	"math/rand"
	"strconv"
)

// NewTokenNumber draws a 4-digit pickup token uniformly from [1000, 9999].
// Tokens are not checked for uniqueness across sessions; collisions are an
// accepted limitation of the simulated environment.
func NewTokenNumber() string {
	return strconv.Itoa(1000 + rand.Intn(9000))
}

// NewOrderNumber draws the display-only order number shown on the kiosk
// screen. Same shape as a token; stable for the life of the session.
func NewOrderNumber() string {
	return strconv.Itoa(1000 + rand.Intn(9000))
}
