package models

import "strings"

// ImageKind 区分图片引用的两种形态。
type ImageKind int

const (
	RemoteURL ImageKind = iota // 远程 URL，以 JSON 形式发送给后端
	LocalPath                  // 本地文件路径，以 multipart 形式上传
)

// String 返回图片引用类型的字符串表示。
func (k ImageKind) String() string {
	switch k {
	case LocalPath:
		return "local_path"
	case RemoteURL:
		return "remote_url"
	default:
		return "unknown"
	}
}

const fileScheme = "file://"

// ImageReference 是工具参数 image_url 解析后的结果。
// 对于 LocalPath，Value 已去掉 file:// 前缀；对于 RemoteURL，Value 即原始字符串。
type ImageReference struct {
	Kind  ImageKind
	Value string
}

// ParseImageReference 仅根据前缀判断图片引用类型，不访问文件系统。
// 以 "/"、"./" 或 "file://" 开头的视为本地路径，其余一律视为远程 URL。
func ParseImageReference(raw string) ImageReference {
	switch {
	case strings.HasPrefix(raw, fileScheme):
		return ImageReference{Kind: LocalPath, Value: strings.TrimPrefix(raw, fileScheme)}
	case strings.HasPrefix(raw, "/"), strings.HasPrefix(raw, "./"):
		return ImageReference{Kind: LocalPath, Value: raw}
	default:
		return ImageReference{Kind: RemoteURL, Value: raw}
	}
}

// IsLocal 报告该引用是否指向本地文件。
func (r ImageReference) IsLocal() bool {
	return r.Kind == LocalPath
}

func (r ImageReference) String() string {
	return r.Value
}
