package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLooksLikeMonetaryText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"thousand shorthand", "Ăn phở 45k", true},
		{"thousand shorthand upper", "Cafe 50K", true},
		{"million shorthand", "Tiền nhà 5tr", true},
		{"million shorthand upper with space", "Lương 15 TR", true},
		{"dong sign", "Gửi xe 5000đ", true},
		{"dong symbol", "Trà sữa 35000 ₫", true},
		{"dong word", "Gửi xe 100 đồng", true},
		{"dong word unaccented", "Gui xe 5000 dong", true},
		{"dong word upper", "Vé số 10000 ĐỒNG", true},
		{"dollar", "Netflix 12$", true},
		{"vnd word", "Điện 500000 VND tháng này", true},
		{"nghin word", "Bánh mì 20 nghìn", true},
		{"trieu word", "Mua điện thoại 2 triệu", true},
		{"colloquial unit", "Cho vay 1 củ", true},
		{"english words", "paid 3 thousand for lunch", true},
		{"grouped with dots", "Đổ xăng 200.000", true},
		{"grouped with commas", "Trả nợ 1,500,000", true},

		{"empty", "", false},
		{"small bare integer", "có 3 người", false},
		{"plain question", "Tôi chi tiêu nhiều nhất vào gì?", false},
		{"slash date", "Hôm 03/11/2025 đi chơi", false},
		{"dot date", "Hôm 03.11.2025 đi chơi", false},
		{"bare year", "Kế hoạch năm 2025", false},
		{"unit glued to a word", "Mua 2kg gạo", false},
		{"tr prefix of a word", "Ăn 3 trái cam", false},
		{"decimal number", "Tỉ lệ 12.50 phần trăm", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeMonetaryText(tt.text), "text %q", tt.text)
		})
	}
}

func TestLooksLikeMonetaryText_SmallIntegersNeverMatch(t *testing.T) {
	for n := 0; n < 100; n++ {
		text := "có " + string(rune('0'+n/10)) + string(rune('0'+n%10)) + " người"
		assert.False(t, LooksLikeMonetaryText(text), text)
	}
}
