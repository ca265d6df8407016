package assistant

import (
	"encoding/json"
	"strings"
)

// TaskPrompt asks for a list of tasks described by message.
func TaskPrompt(context, message string) string {
	var b strings.Builder
	b.WriteString("Bạn là trợ lý quản lý công việc. Hãy phân tích câu mô tả sau thành danh sách công việc.\n\n")
	b.WriteString("YÊU CẦU:\n")
	b.WriteString("- Trả về JSON dạng list các object.\n")
	b.WriteString("- Mỗi công việc gồm các trường:\n")
	for _, f := range TaskFields {
		b.WriteString("  - " + f + taskHints[f] + "\n")
	}
	writeTail(&b, context, message)
	return b.String()
}

var taskHints = map[string]string{
	"NGUOI_GIAO":   " (ID_NHAN_SU)",
	"NGUOI_NHAN":   " (ID_NHAN_SU)",
	"NGAY_GIAO":    " (dd/mm/yyyy)",
	"HAN_CHOT":     " (dd/mm/yyyy)",
	"IDDV_CV":      " (ID_DON_VI)",
	"IDDA_CV":      " (ID_DU_AN)",
	"IDGT_CV":      " (ID_GOI_THAU)",
	"IDHD_CV":      " (ID_HOP_DONG)",
	"IDVB_VAN_BAN": " (ID_VB)",
}

// MemoryPrompt asks for reminders, meetings and finished work described by
// message.
func MemoryPrompt(context, message string) string {
	var b strings.Builder
	b.WriteString("Bạn là trợ lý trí nhớ AI. Hãy phân tích câu mô tả sau thành TRÍ NHỚ AI.\n\n")
	b.WriteString("CÁC LOẠI TRÍ NHỚ:\n")
	b.WriteString("1. NHAC_VIEC\n   - Lặp lại: none / daily / weekly / monthly\n   - Chu kỳ: mô tả thêm (nếu có)\n   - Thời gian: dd/mm/yyyy HH:MM hoặc dd/mm/yyyy\n\n")
	b.WriteString("2. HOP\n   - Tóm tắt nội dung họp\n   - Nội dung đầy đủ\n\n")
	b.WriteString("3. VIEC_DA_LAM\n   - Mô tả việc đã hoàn thành\n   - Thời gian hoàn thành\n\n")
	b.WriteString("YÊU CẦU TRẢ VỀ JSON DẠNG LIST:\n")
	example := make(map[string]string, len(MemoryFields))
	for _, f := range MemoryFields {
		example[f] = ""
	}
	shape, _ := json.MarshalIndent([]map[string]string{example}, "", "  ")
	b.Write(shape)
	b.WriteString("\n")
	writeTail(&b, context, message)
	return b.String()
}

func writeTail(b *strings.Builder, context, message string) {
	b.WriteString("\nDỮ LIỆU THAM CHIẾU:\n")
	b.WriteString(context)
	b.WriteString("\n\nCÂU MÔ TẢ CỦA NGƯỜI DÙNG:\n\"\"\"")
	b.WriteString(message)
	b.WriteString("\"\"\"\n\nHÃY TRẢ VỀ JSON DUY NHẤT, KHÔNG GIẢI THÍCH.\n")
}
