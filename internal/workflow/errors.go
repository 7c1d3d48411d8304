package workflow

import (
	"errors"
	"fmt"

	"chitieu/internal/core"
)

var (
	ErrParseFailure       = errors.New("could not analyze transaction")
	ErrPersistenceFailure = errors.New("could not save transaction")
	// ErrInvalidState rejects an event the current state does not accept.
	ErrInvalidState = errors.New("invalid candidate state")
	ErrClosed       = errors.New("workflow closed")
)

// UserMessage returns the Vietnamese text shown for err, or "" for nil.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParseFailure):
		return "Không thể phân tích giao dịch"
	case errors.Is(err, ErrPersistenceFailure):
		return "Không thể lưu giao dịch"
	case errors.Is(err, ErrInvalidState):
		return "Vui lòng xác nhận hoặc huỷ giao dịch đang chờ trước"
	case errors.Is(err, ErrClosed):
		return "Phiên trò chuyện đã kết thúc"
	default:
		return "Xin lỗi, đã xảy ra lỗi. Vui lòng thử lại sau."
	}
}

// SavedMessage is the confirmation shown after a successful save.
func SavedMessage(c core.Candidate) string {
	kind := "chi tiêu"
	if c.Type == core.Income {
		kind = "thu nhập"
	}
	return fmt.Sprintf("Đã lưu %s: %s", kind, core.FormatVND(c.Amount))
}
