package wa

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// RenderQR 配对串渲染为 PNG data URL，供后台直接展示
func RenderQR(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 320)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
