package filter

import (
	"time"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
)

const DateLayout = domain.DateLayout

func ParseDate(s string) (time.Time, bool) { return domain.ParseDate(s) }
