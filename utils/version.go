package utils

// 构建时通过 -ldflags 注入
var (
	CurrentVersion = "0.0.0"
	VersionHash    = "unknown"
)

// IsDevBuild 未注入构建信息时视为开发版本
func IsDevBuild() bool {
	return VersionHash == "unknown"
}
