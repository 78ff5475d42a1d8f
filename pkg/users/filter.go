package users

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// UserFilter is the predicate and page window of a user listing. Nil fields do not filter.
type UserFilter struct {
	Name     *string
	Age      *int
	Role     *string
	IsActive *bool
	Page     int
	Limit    int
}

// ParseUserFilter reads name, age, role, isActive, page and limit from query values.
// Empty name/age/role are ignored, an unparsable age is ignored, and any isActive
// value other than a case-insensitive "true" means false.
func ParseUserFilter(q url.Values) UserFilter {
	f := UserFilter{
		Page:  positiveOr(q.Get("page"), DefaultPage),
		Limit: positiveOr(q.Get("limit"), DefaultLimit),
	}

	if name := q.Get("name"); name != "" {
		f.Name = &name
	}
	if raw := q.Get("age"); raw != "" {
		if age, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			f.Age = &age
		}
	}
	if role := q.Get("role"); role != "" {
		f.Role = &role
	}
	if _, ok := q["isActive"]; ok {
		active := strings.EqualFold(q.Get("isActive"), "true")
		f.IsActive = &active
	}

	return f
}

// Normalize replaces a missing or non-positive page or limit with its default
func (f UserFilter) Normalize() UserFilter {
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	return f
}

// Offset is the number of rows skipped before the current page.
// It saturates at math.MaxInt instead of overflowing.
func (f UserFilter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// apply adds the WHERE clauses of the filter to a query
func (f UserFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Name != nil {
		pattern := "%" + escapeLike(strings.ToLower(*f.Name)) + "%"
		db = db.Where(`(LOWER(firstname) LIKE ? ESCAPE '\' OR LOWER(lastname) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if f.Age != nil {
		db = db.Where("age = ?", *f.Age)
	}
	if f.Role != nil {
		db = db.Where("LOWER(role) = LOWER(?)", *f.Role)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	return db
}

// TotalPages is ceil(total / limit)
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total-1)/int64(limit) + 1)
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
