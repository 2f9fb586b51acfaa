package service

import (
	"frotadocs/internal/domain"
)

// ScopeService вычисляет, какие документы видит принципал. Видимость —
// пересечение по ролям И пересечение по компаниям. companyScoping = false
// возвращает старое поведение, когда измерение компаний совпадает со всем.
type ScopeService struct {
	companyScoping bool
}

func NewScopeService(companyScoping bool) *ScopeService {
	return &ScopeService{companyScoping: companyScoping}
}

// ComputeScope проецирует метки принципала.
func (s *ScopeService) ComputeScope(p *domain.Principal) (roles, companies []string) {
	return append([]string(nil), p.Roles...), append([]string(nil), p.Companies...)
}

// MatchAllCompanies сообщает, что для данного принципала измерение компаний
// не фильтрует: либо фильтрация по компаниям выключена, либо роль adm.
func (s *ScopeService) MatchAllCompanies(p *domain.Principal) bool {
	return !s.companyScoping || p.HasRole(domain.RoleAdmin)
}

// IsVisible проверяет документ против областей видимости принципала.
func (s *ScopeService) IsVisible(docRoles, docCompanies, roles, companies []string) bool {
	if !intersects(docRoles, roles) {
		return false
	}
	if !s.companyScoping {
		return true
	}
	// Роль adm освобождена от фильтрации по компаниям
	for _, r := range roles {
		if r == domain.RoleAdmin {
			return true
		}
	}
	return intersects(docCompanies, companies)
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
