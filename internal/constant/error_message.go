package constant

// ErrorInfo bilingual message pair
type ErrorInfo struct {
	ID string `json:"id"` // Bahasa Indonesia
	EN string `json:"en"`
}

// ErrorMessages code -> message
var ErrorMessages = map[int]ErrorInfo{
	CodeSuccess:            {"Berhasil", "Success"},
	CodeSystemError:        {"Kesalahan sistem", "System error"},
	CodeDatabaseError:      {"Kesalahan database", "Database error"},
	CodeRedisError:         {"Kesalahan cache", "Cache error"},
	CodeServiceUnavailable: {"Layanan belum siap", "Service unavailable"},
	CodeTimeout:            {"Waktu habis", "Timeout"},

	CodeInvalidParams:    {"Parameter tidak valid", "Invalid parameters"},
	CodeMissingParams:    {"Parameter wajib diisi", "Missing parameters"},
	CodeParamsRangeError: {"Nilai di luar batas", "Parameter out of range"},

	CodeUnauthorized:   {"Tidak diizinkan", "Unauthorized"},
	CodeSignatureError: {"Signature tidak valid", "Invalid signature"},
	CodeAccessDenied:   {"Akses ditolak", "Access denied"},

	CodeOrderNotFound:      {"Order tidak ditemukan", "Order not found"},
	CodeOrderStatusInvalid: {"Status order tidak valid", "Order status invalid"},
	CodeOrderAmountInvalid: {"Total order tidak valid", "Order amount invalid"},

	CodeProductNotFound: {"Produk tidak ditemukan", "Product not found"},

	CodeMessagingNotConnected: {"WhatsApp belum terhubung", "WhatsApp not connected"},
	CodeMessagingDisabled:     {"WhatsApp dinonaktifkan", "WhatsApp disabled"},
	CodeNotifyAlreadyClaimed:  {"Notifikasi sudah dikirim", "Notification already claimed"},

	CodeUpstreamError:        {"Gagal menghubungi gateway", "Upstream error"},
	CodeUpstreamTimeout:      {"Gateway tidak merespons", "Upstream timeout"},
	CodeUpstreamNetworkError: {"Jaringan gateway bermasalah", "Upstream network error"},
}
