package models

// LauncherStatus is the answer of GET /launcher/api/v1/server/status
type LauncherStatus struct {
	Process     ProcessDetail `json:"process"`
	URL         string        `json:"url,omitempty"` //服务运行时的访问地址
	BaseDir     string        `json:"baseDir"`
	SavedPort   int           `json:"savedPort"`
	DefaultPort int           `json:"defaultPort"`
	Problems    []string      `json:"problems,omitempty"` //发布目录检查发现的问题
}
