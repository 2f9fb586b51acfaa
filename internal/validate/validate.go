package validate

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Password требует минимум 6 символов.
func Password(s string) bool {
	return len(s) >= 6
}

// CPF проверяет бразильский CPF по двум контрольным цифрам.
// Пунктуация отбрасывается, последовательности из одной цифры отвергаются.
func CPF(s string) bool {
	var digits []int
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) != 11 {
		return false
	}

	allSame := true
	for _, d := range digits[1:] {
		if d != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 || rest == 11 {
		rest = 0
	}
	if rest != digits[9] {
		return false
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += digits[i] * (11 - i)
	}
	rest = (sum * 10) % 11
	if rest == 10 || rest == 11 {
		rest = 0
	}
	return rest == digits[10]
}

// Tag проверяет принадлежность метки закрытому перечислению.
func Tag(tag string, allowed []string) bool {
	for _, a := range allowed {
		if a == tag {
			return true
		}
	}
	return false
}

// Tags проверяет, что набор непустой и каждая метка допустима.
func Tags(tags []string, allowed []string) bool {
	if len(tags) == 0 {
		return false
	}
	for _, t := range tags {
		if !Tag(strings.TrimSpace(t), allowed) {
			return false
		}
	}
	return true
}
