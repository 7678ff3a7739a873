package dto

// WAStartReq 启动会话；填写号码时走配对码，否则走二维码
type WAStartReq struct {
	PhoneNumber string `json:"phoneNumber"`
}

// WATestReq 后台测试发送
type WATestReq struct {
	To  string `json:"to" binding:"required"`
	Msg string `json:"msg" binding:"required,max=2000"`
}

// SaveSettingsReq 后台保存配置；值可以是字符串、布尔或数字
type SaveSettingsReq map[string]interface{}
