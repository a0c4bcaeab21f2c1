package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"concierge/internal/models"

	"github.com/skip2/go-qrcode"
)

// ErrNotConfirmed means a QR was requested for a draft that has not been
// confirmed yet.
var ErrNotConfirmed = errors.New("booking is not confirmed")

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

type confirmationPayload struct {
	BookingID string     `json:"booking_id"`
	GuestName string     `json:"guest_name,omitempty"`
	CheckIn   *time.Time `json:"checkin,omitempty"`
	CheckOut  *time.Time `json:"checkout,omitempty"`
	Guests    *int       `json:"guests,omitempty"`
}

// ConfirmationQR encodes an encrypted summary of a confirmed booking as
// a 256px PNG.
func (g *Generator) ConfirmationQR(booking *models.Booking) ([]byte, error) {
	if booking.State != models.StateConfirmed {
		return nil, ErrNotConfirmed
	}

	payload := confirmationPayload{
		BookingID: booking.ID,
		CheckIn:   booking.CheckIn,
		CheckOut:  booking.CheckOut,
		Guests:    booking.Guests,
	}
	if booking.GuestName != nil {
		payload.GuestName = *booking.GuestName
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
