package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了用户模型
type User struct {
	ID          uint   `gorm:"primaryKey"`
	Username    string `gorm:"size:150;uniqueIndex;not null"`
	Email       string `gorm:"size:254"`
	Password    string `gorm:"not null" json:"-"`
	IsStaff     bool
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func (u *User) CheckPassword(password string) bool {
	if u == nil || u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// CreateUser hashes the password and stores a regular (non-staff) account.
func CreateUser(gdb *gorm.DB, username, email, password string) (*User, error) {
	return createUser(gdb, username, email, password, false)
}

// CreateSuperuser stores an account with staff and superuser flags set.
func CreateSuperuser(gdb *gorm.DB, username, email, password string) (*User, error) {
	return createUser(gdb, username, email, password, true)
}

func createUser(gdb *gorm.DB, username, email, password string, admin bool) (*User, error) {
	if gdb == nil {
		return nil, errors.New("database not initialized")
	}

	trimmedUser := strings.TrimSpace(username)
	if trimmedUser == "" {
		return nil, errors.New("username is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:    trimmedUser,
		Email:       strings.TrimSpace(email),
		Password:    string(hashed),
		IsStaff:     admin,
		IsSuperuser: admin,
	}
	if err := gdb.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个超级管理员。
func EnsureUser(username, email, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		_, err := CreateSuperuser(DB, trimmedUser, email, trimmedPassword)
		return err
	}

	return nil
}
