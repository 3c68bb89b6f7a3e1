package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReferenceCode builds human-readable ids such as "BK20250106A3F9C1": a prefix,
// the local calendar date and six upper-case hex digits from a random UUID.
// Uniqueness is probabilistic; the unique index is the final arbiter.
func ReferenceCode(prefix string, at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + at.In(time.Local).Format("20060102") + strings.ToUpper(suffix)
}
