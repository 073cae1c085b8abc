package database

import (
	"fmt"
	"log"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeededUser describes an account created by Seed.
type SeededUser struct {
	Username string
	Password string
	Role     models.UserRole
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Seed creates the default admin (only if no admin exists yet) and the demo
// accounts. It returns the accounts it actually created.
func Seed(db *gorm.DB, adminUsername, adminPassword string) ([]SeededUser, error) {
	if adminUsername == "" {
		adminUsername = "admin@review.local"
	}
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var created []SeededUser

	var admins int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to check admin user: %w", err)
	}
	if admins == 0 {
		u := SeededUser{Username: adminUsername, Password: adminPassword, Role: models.RoleAdmin}
		if err := createUser(db, u); err != nil {
			return created, err
		}
		created = append(created, u)
	}

	// demo accounts, one per remaining role
	demo := []SeededUser{
		{Username: "consultant@review.local", Password: "Consult123!", Role: models.RoleConsultant},
		{Username: "client@review.local", Password: "Client123!", Role: models.RoleClient},
		{Username: "viewer@review.local", Password: "Viewer123!", Role: models.RoleViewer},
	}

	for _, u := range demo {
		var count int64
		if err := db.Model(&models.User{}).
			Where("username = ?", u.Username).
			Count(&count).Error; err != nil {
			log.Printf("failed to check seed user %s: %v", u.Username, err)
			continue
		}
		if count > 0 {
			continue
		}
		if err := createUser(db, u); err != nil {
			log.Printf("%v", err)
			continue
		}
		created = append(created, u)
	}

	return created, nil
}

func createUser(db *gorm.DB, u SeededUser) error {
	hash, err := HashPassword(u.Password)
	if err != nil {
		return err
	}
	user := models.User{
		Username:     u.Username,
		PasswordHash: hash,
		Role:         u.Role,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create seed user %s: %w", u.Username, err)
	}
	log.Printf("created seed user: %s (role=%s)", u.Username, u.Role)
	return nil
}
