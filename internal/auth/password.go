package auth

import (
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword 使用 bcrypt 对密码进行哈希处理。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash 验证提供的密码是否与其 bcrypt 哈希值匹配。
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NewRawToken 生成邮件中发送的一次性令牌：用户 ID 加随机 UUID。
// 只有它的 bcrypt 哈希会被持久化。
func NewRawToken(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10) + uuid.NewString()
}
