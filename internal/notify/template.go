package notify

import (
	"regexp"
	"strconv"

	ordermodel "rd-topup-api/internal/model/order"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Render 替换 {key} 占位符；未知键渲染为空串
func Render(tpl string, data map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		return data[m[1:len(m)-1]]
	})
}

// OrderData 模板可用字段
func OrderData(o *ordermodel.Order) map[string]string {
	product := ""
	if o.Product != nil {
		product = o.Product.Name
	}
	return map[string]string{
		"order_id":       o.OrderID,
		"product":        product,
		"total":          strconv.FormatInt(o.GrossAmount, 10),
		"qty":            strconv.Itoa(o.Qty),
		"pay_status":     string(o.PayStatus),
		"fulfill_status": string(o.FulfillStatus),
		"game_id":        o.GameID,
		"nickname":       o.Nickname,
		"admin_note":     o.AdminNote,
	}
}
