package storage

import (
	"errors"
	"strconv"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// StrToUint 将字符串转换为 uint。
// 如果转换失败，它会返回 0 和错误。
func StrToUint(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

// IsNotFound 判断错误是否表示记录不存在，同时覆盖 gorm 和 mongo 两种存储。
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments)
}
