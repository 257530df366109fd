package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID                 string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name               string         `gorm:"not null;column:name" json:"name" validate:"required,min=2"`
	Email              string         `gorm:"uniqueIndex;not null;column:email" json:"email" validate:"required,email"`
	Password           string         `gorm:"column:password" json:"password,omitempty"`
	Avatar             string         `gorm:"column:avatar" json:"avatar,omitempty"`
	Role               Role           `gorm:"not null;column:role;index" json:"role"`
	IsVerified         bool           `gorm:"not null;default:false;column:is_verified" json:"isVerified"`
	CPF                string         `gorm:"column:cpf" json:"cpf,omitempty"`
	Gender             string         `gorm:"column:gender" json:"gender,omitempty"`
	Education          string         `gorm:"column:education" json:"education,omitempty"`
	HasBolsaFamilia    bool           `gorm:"column:has_bolsa_familia" json:"hasBolsaFamilia"`
	BirthDate          string         `gorm:"column:birth_date" json:"birthDate,omitempty"`
	Address            datatypes.JSON `gorm:"column:address" json:"address,omitempty"`
	IsMackenzieStudent bool           `gorm:"column:is_mackenzie_student" json:"isMackenzieStudent"`
	MackenzieData      datatypes.JSON `gorm:"column:mackenzie_data" json:"mackenzieData,omitempty"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) GetID() string   { return u.ID }
func (u *User) SetID(id string) { u.ID = id }

// BeforeSave normalizes the email and role and hashes plaintext passwords.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	u.Role = ParseRole(string(u.Role))
	if u.Password != "" && !IsHashed(u.Password) {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
	}
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	if u == nil || u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// Redacted returns a copy safe to serialize to clients.
func (u *User) Redacted() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Password = ""
	return &cp
}

func IsHashed(pw string) bool {
	return strings.HasPrefix(pw, "$2a$") || strings.HasPrefix(pw, "$2b$") || strings.HasPrefix(pw, "$2y$")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
