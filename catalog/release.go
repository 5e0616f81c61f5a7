package catalog

import "time"

// PubDateLayout 与 JavaScript Date.toISOString() 输出一致
const PubDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Release 某个平台的一次发布
type Release struct {
	Version   string `json:"version" yaml:"version"`
	Notes     string `json:"notes" yaml:"notes"`
	PubDate   string `json:"pub_date" yaml:"pub_date"`
	Signature string `json:"signature" yaml:"signature"`
	URL       string `json:"url" yaml:"url"`
}

// FormatPubDate 按 UTC 毫秒精度格式化发布时间
func FormatPubDate(t time.Time) string {
	return t.UTC().Format(PubDateLayout)
}
