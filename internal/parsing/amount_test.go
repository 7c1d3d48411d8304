package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   int64
		wantOK bool
	}{
		{"thousand suffix", "ăn phở 45k", 45000, true},
		{"compact millions", "1tr5", 1500000, true},
		{"compact with three digits", "lương 1tr500", 1500000, true},
		{"triệu word", "2 triệu", 2000000, true},
		{"decimal millions", "1.5tr", 1500000, true},
		{"củ slang", "3 củ", 3000000, true},
		{"nghìn đồng", "50 nghìn đồng", 50000, true},
		{"grouped with đ", "1.500.000đ", 1500000, true},
		{"grouped with vnd", "200,000 vnd", 200000, true},
		{"plain digits", "50000", 50000, true},
		{"unit beats plain", "mua 2 áo 300k", 300000, true},
		{"unit beats grouped", "1.000.000 hay 800k", 800000, true},
		{"last unit wins", "45k rồi thêm 30k", 30000, true},
		{"date digits ignored", "03/11 50000", 50000, true},
		{"time only", "08:30", 0, false},
		{"weight is not money", "mua 2kg thịt", 0, false},
		{"no digits", "ăn sáng", 0, false},
		{"empty", "", 0, false},
		{"zero", "0k", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAmount(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.Amount.IntPart())
			}
		})
	}
}
