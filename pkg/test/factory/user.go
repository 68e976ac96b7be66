package factory

import (
	fab "github.com/Goldziher/fabricator"
	"golang.org/x/crypto/bcrypt"

	"todotracker/internal/core/domain"
)

// NewUser builds a user with random fields. Role and status fall back to an
// active regular user and the password to "12345678" unless given.
func NewUser(customData ...map[string]any) domain.User {
	data := merged(customData)

	if _, ok := data["EncryptedPassword"]; !ok {
		encryptedPassword, _ := bcrypt.GenerateFromPassword([]byte("12345678"), bcrypt.MinCost)
		data["EncryptedPassword"] = string(encryptedPassword)
	}

	user := fab.New(domain.User{}).Build(data)
	user.ID = 0

	if !user.Role.IsValid() {
		user.Role = domain.RoleUser
	}

	if !user.Status.IsValid() {
		user.Status = domain.UserActive
	}

	return user
}

func hasKey(customData []map[string]any, key string) bool {
	for _, data := range customData {
		if _, exists := data[key]; exists {
			return true
		}
	}

	return false
}

// merged folds every override into one map. fabricator only reads the first
// override it is given.
func merged(customData []map[string]any) map[string]any {
	data := map[string]any{}
	for _, m := range customData {
		for k, v := range m {
			data[k] = v
		}
	}

	return data
}
