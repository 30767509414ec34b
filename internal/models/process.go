package models

import "time"

// ProcessDetail is a point-in-time snapshot of the supervised process
type ProcessDetail struct {
	Command        string    `json:"command"`        //可执行文件路径
	Args           []string  `json:"args"`           //启动参数
	WorkDir        string    `json:"workDir"`        //工作目录
	Port           int       `json:"port"`           //启动时使用的端口
	Pid            int       `json:"pid"`            //进程PID
	State          State     `json:"state"`          //状态
	StartTime      time.Time `json:"startTime"`      //启动时间
	LastExitTime   time.Time `json:"lastExitTime"`   //最后一次退出的时间
	LastExitReason string    `json:"lastExitReason"` //最后一次退出的原因
	ForcedKill     bool      `json:"forcedKill"`     //上次停止是否使用了强制终止
	OutputLines    int64     `json:"outputLines"`    //已转发的输出行数
}
