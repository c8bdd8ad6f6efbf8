package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const inviteLinkLength = 12

// RoomCode returns a short numeric join secret.
func RoomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the platform is broken; fall back to a
		// uuid-derived code rather than aborting room creation.
		return strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// OTPCode returns a six digit one-time password.
func OTPCode() string {
	return RoomCode()
}

// InviteLinkID returns a url-safe invite link identifier.
func InviteLinkID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:inviteLinkLength]
}

// GuestID returns a fresh guest identity string.
func GuestID() string {
	return "guest_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
