package validate

import "testing"

func TestEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b@dominio.com.br"}
	invalid := []string{"", "user", "user@", "@example.com", "user example@x.com", "user@x"}

	for _, e := range valid {
		if !Email(e) {
			t.Errorf("Email(%q) = false, ожидался true", e)
		}
	}
	for _, e := range invalid {
		if Email(e) {
			t.Errorf("Email(%q) = true, ожидался false", e)
		}
	}
}

func TestPassword(t *testing.T) {
	if Password("12345") {
		t.Error("пароль короче 6 символов прошел проверку")
	}
	if !Password("123456") {
		t.Error("пароль из 6 символов не прошел проверку")
	}
}

func TestCPF(t *testing.T) {
	// 529.982.247-25 — корректный CPF по контрольным цифрам
	valid := []string{"52998224725", "529.982.247-25"}
	invalid := []string{
		"",
		"11111111111", // все цифры одинаковые
		"52998224724", // неверная вторая контрольная цифра
		"5299822472",  // короткий
		"529982247250",
	}

	for _, c := range valid {
		if !CPF(c) {
			t.Errorf("CPF(%q) = false, ожидался true", c)
		}
	}
	for _, c := range invalid {
		if CPF(c) {
			t.Errorf("CPF(%q) = true, ожидался false", c)
		}
	}
}

func TestTags(t *testing.T) {
	allowed := []string{"adm", "driver-truck", "driver-car"}

	if !Tag("adm", allowed) {
		t.Error("известная роль не прошла проверку")
	}
	if Tag("root", allowed) {
		t.Error("неизвестная роль прошла проверку")
	}
	if Tags(nil, allowed) {
		t.Error("пустой набор меток прошел проверку")
	}
	if !Tags([]string{"driver-truck", "adm"}, allowed) {
		t.Error("корректный набор меток не прошел проверку")
	}
	if Tags([]string{"driver-truck", "root"}, allowed) {
		t.Error("набор с неизвестной меткой прошел проверку")
	}
}
