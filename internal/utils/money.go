package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPeso renders an amount in centavos as "₱1,234.50".
func FormatPeso(centavos int64) string {
	if centavos < 0 {
		return "-₱" + FormatAmount(-centavos)
	}
	return "₱" + FormatAmount(centavos)
}

// FormatAmount renders centavos as "1,234.50" without a currency sign.
func FormatAmount(centavos int64) string {
	sign := ""
	if centavos < 0 {
		sign = "-"
		centavos = -centavos
	}
	return fmt.Sprintf("%s%s.%02d", sign, formatThousand(centavos/100), centavos%100)
}

// ParsePesoToCentavos parses "₱1,000.50", "PHP 50" or "50" into centavos.
func ParsePesoToCentavos(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₱")
	s = strings.TrimPrefix(strings.ToUpper(s), "PHP")
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return 0, fmt.Errorf("invalid peso amount")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	pesos, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid peso amount: %w", err)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		if len(frac) != 2 {
			return 0, fmt.Errorf("invalid peso amount %q", s)
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid peso amount: %w", err)
		}
	}
	total := pesos*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
