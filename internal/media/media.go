// Package media holds the file storage contract shared by the upload
// handler and the storage backends, so neither has to import the other.
package media

import (
	"context"
	"io"
)

// FileInfo 包含上传文件的基本信息和访问路径。
type FileInfo struct {
	URL      string `json:"url"`      // 可公开访问的文件 URL，作为 post.image 或 profileUrl 使用
	Path     string `json:"path"`     // 文件在存储系统中的路径或对象键
	Size     int64  `json:"size"`     // 文件大小 (字节)
	MimeType string `json:"mimeType"` // 文件的 MIME 类型
	FileName string `json:"fileName"` // 原始文件名
}

// StorageService 定义了文件存储操作的接口。
type StorageService interface {
	// UploadFile 将读取器中的内容上传到存储系统，返回文件信息 (含访问 URL)。
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
	// DeleteFile 删除 UploadFile 返回的 Path 所指的文件。
	DeleteFile(ctx context.Context, path string) error
}
