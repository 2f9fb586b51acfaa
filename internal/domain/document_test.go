package domain

import (
	"reflect"
	"testing"
)

// TestNormalizeCompanyTags проверяет все формы, в которых клиенты присылают
// поле компаний.
func TestNormalizeCompanyTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "JSON-массив",
			raw:  `["Telsite", "Mas"]`,
			want: []string{"Telsite", "Mas"},
		},
		{
			name: "JSON-строка с массивом внутри",
			raw:  `"[\"Telsite\", \"Paros\"]"`,
			want: []string{"Telsite", "Paros"},
		},
		{
			name: "голая строка",
			raw:  "Telsite",
			want: []string{"Telsite"},
		},
		{
			name: "JSON-строка с голой строкой внутри",
			raw:  `"Telsite"`,
			want: []string{"Telsite"},
		},
		{
			name: "дубликаты и пробелы отбрасываются",
			raw:  `[" Telsite ", "Telsite", "", "Mas"]`,
			want: []string{"Telsite", "Mas"},
		},
		{
			name: "пустое поле",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCompanyTags(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeCompanyTags(%q) = %v, ожидался %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPrincipalHasRole(t *testing.T) {
	p := &Principal{Roles: []string{"driver-truck", "adm"}}

	if !p.HasRole("adm") {
		t.Error("HasRole(adm) = false")
	}
	if p.HasRole("driver-car") {
		t.Error("HasRole(driver-car) = true")
	}
}
