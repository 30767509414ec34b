package models

// HealthResponse 健康检查响应结构
// @Description 健康检查API响应数据结构
type HealthResponse struct {
	Version   string  `json:"version" example:"1.0.0" description:"launcher version"`
	StartTime string  `json:"startTime" example:"2024-01-01T10:00:00Z" description:"control server start time"`
	Status    string  `json:"status" example:"UP" description:"health status"`
	Uptime    string  `json:"uptime" example:"1h30m45s" description:"control server uptime"`
	Metrics   Metrics `json:"metrics" description:"key metrics"`
}

// Metrics 关键指标结构
type Metrics struct {
	TotalRequests int64 `json:"totalRequests" example:"1000"`
	ErrorRequests int64 `json:"errorRequests" example:"5"`
	Starts        int64 `json:"starts" example:"3"`
	Crashes       int64 `json:"crashes" example:"0"`
	ServerState   State `json:"serverState" example:"running"`
}
