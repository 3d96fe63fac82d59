package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bitcoin - игровая валюта с фиксированной точкой (8 знаков после запятой).
// Хранится как int64 в сатоши, чтобы сумма записей леджера всегда сходилась
// с балансом без ошибок округления.
type Bitcoin int64

// SatoshiPerBitcoin - количество сатоши в одном BTC.
const SatoshiPerBitcoin = 100_000_000

// String форматирует сумму как десятичную строку вида "1.25000000".
func (b Bitcoin) String() string {
	sign := ""
	v := int64(b)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%08d", sign, v/SatoshiPerBitcoin, v%SatoshiPerBitcoin)
}

// MarshalJSON сериализует Bitcoin как десятичную строку.
func (b Bitcoin) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

// UnmarshalJSON принимает десятичную строку (с кавычками или без).
func (b *Bitcoin) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseBitcoin(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBitcoin разбирает десятичную строку ("0.5", "12", "-1.05") без float,
// чтобы не терять точность.
func ParseBitcoin(s string) (Bitcoin, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty bitcoin amount", ErrInvalidInput)
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 8 {
		return 0, fmt.Errorf("%w: bitcoin amount %q has more than 8 decimal places", ErrInvalidInput, s)
	}
	// Дополняем дробную часть до 8 знаков
	frac += strings.Repeat("0", 8-len(frac))

	wholeVal, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid bitcoin amount %q", ErrInvalidInput, s)
	}
	fracVal := int64(0)
	if frac != "00000000" {
		fracVal, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid bitcoin amount %q", ErrInvalidInput, s)
		}
	}

	// Сумма в сатоши должна помещаться в int64
	if wholeVal > math.MaxInt64/SatoshiPerBitcoin {
		return 0, fmt.Errorf("%w: bitcoin amount %q is out of range", ErrInvalidInput, s)
	}
	total := wholeVal*SatoshiPerBitcoin + fracVal
	if total < 0 {
		return 0, fmt.Errorf("%w: bitcoin amount %q is out of range", ErrInvalidInput, s)
	}
	if negative {
		total = -total
	}
	return Bitcoin(total), nil
}
