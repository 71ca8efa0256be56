package invoice

import (
	"fmt"
	"time"
)

// NewInvoiceID derives the 14-character business key YYMMDDHHmmSSff from t,
// where ff is the top two digits of the millisecond field. Two calls inside
// the same hundredth of a second produce identical output; the creation
// workflow handles that collision.
func NewInvoiceID(t time.Time) string {
	ms := t.Nanosecond() / int(time.Millisecond)
	return t.Format("060102150405") + fmt.Sprintf("%02d", ms/10)
}
