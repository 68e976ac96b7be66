package cursor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// CursorData points at the last row of a page, ordered by created_at, id.
type CursorData struct {
	Datetime string `json:"datetime"`
	ID       int    `json:"id,omitempty"`
}

func hmacSignature(encoded string) string {
	mac := hmac.New(sha256.New, []byte(os.Getenv("CURSOR_SECRET_KEY")))
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func verifySignature(encoded string, signature string) bool {
	expectedSignature := hmacSignature(encoded)
	return hmac.Equal([]byte(signature), []byte(expectedSignature))
}

func EncodeCursor(createdAt time.Time, id int) string {
	data := CursorData{Datetime: createdAt.UTC().Format(time.RFC3339Nano), ID: id}
	jsonData, _ := json.Marshal(data)
	encoded := base64.RawURLEncoding.EncodeToString(jsonData)

	return encoded + "." + hmacSignature(encoded)
}

func DecodeCursor(token string) (time.Time, int, error) {
	parts := strings.Split(token, ".")

	if len(parts) != 2 {
		return time.Time{}, 0, ErrInvalidCursor
	}

	if !verifySignature(parts[0], parts[1]) {
		return time.Time{}, 0, ErrInvalidCursor
	}

	decoded, err := base64.RawURLEncoding.DecodeString(parts[0])

	if err != nil {
		return time.Time{}, 0, ErrInvalidCursor
	}

	var data CursorData

	if err := json.Unmarshal(decoded, &data); err != nil {
		return time.Time{}, 0, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, data.Datetime)

	if err != nil {
		return time.Time{}, 0, ErrInvalidCursor
	}

	return createdAt.UTC(), data.ID, nil
}
