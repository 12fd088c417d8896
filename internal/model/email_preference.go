package model

import "time"

// EmailPreference is the stored row. A nil column means "no explicit choice"
// and resolves to the declared default.
type EmailPreference struct {
	UserUID     string    `gorm:"column:user_uid;primaryKey;size:128"`
	Investment  *bool     `gorm:"column:investment"`
	Update      *bool     `gorm:"column:update_notice"`
	Return      *bool     `gorm:"column:return_notice"`
	Welcome     *bool     `gorm:"column:welcome"`
	New         *bool     `gorm:"column:new_listing"`
	Transaction *bool     `gorm:"column:transaction_notice"`
	Visit       *bool     `gorm:"column:visit"`
	Marketing   *bool     `gorm:"column:marketing"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (EmailPreference) TableName() string {
	return "email_preferences"
}

// EmailPreferences is the resolved view: one flag per preference key.
type EmailPreferences struct {
	Investment  bool `json:"investment"`
	Update      bool `json:"update"`
	Return      bool `json:"return"`
	Welcome     bool `json:"welcome"`
	New         bool `json:"new"`
	Transaction bool `json:"transaction"`
	Visit       bool `json:"visit"`
	Marketing   bool `json:"marketing"`
}

func DefaultEmailPreferences() EmailPreferences {
	return EmailPreferences{
		Investment:  true,
		Update:      true,
		Return:      true,
		Welcome:     true,
		New:         true,
		Transaction: true,
		Visit:       true,
		Marketing:   false,
	}
}

// ResolveEmailPreferences merges a stored row (possibly nil) over the defaults.
func ResolveEmailPreferences(row *EmailPreference) EmailPreferences {
	p := DefaultEmailPreferences()
	if row == nil {
		return p
	}
	pick(&p.Investment, row.Investment)
	pick(&p.Update, row.Update)
	pick(&p.Return, row.Return)
	pick(&p.Welcome, row.Welcome)
	pick(&p.New, row.New)
	pick(&p.Transaction, row.Transaction)
	pick(&p.Visit, row.Visit)
	pick(&p.Marketing, row.Marketing)
	return p
}

func pick(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Allows reports whether email should be sent for the given preference key.
// Keys outside the known set fall back to send, except marketing.
func (p EmailPreferences) Allows(key string) bool {
	switch key {
	case string(TypeInvestment):
		return p.Investment
	case string(TypeUpdate):
		return p.Update
	case string(TypeReturn):
		return p.Return
	case string(TypeWelcome):
		return p.Welcome
	case string(TypeNew):
		return p.New
	case string(TypeTransaction):
		return p.Transaction
	case string(TypeVisit):
		return p.Visit
	case PreferenceMarketing:
		return p.Marketing
	default:
		return true
	}
}

// EmailPreferencePatch carries a partial update; nil fields are left as stored.
type EmailPreferencePatch struct {
	Investment  *bool `json:"investment"`
	Update      *bool `json:"update"`
	Return      *bool `json:"return"`
	Welcome     *bool `json:"welcome"`
	New         *bool `json:"new"`
	Transaction *bool `json:"transaction"`
	Visit       *bool `json:"visit"`
	Marketing   *bool `json:"marketing"`
}

// Apply writes the non-nil patch fields onto row.
func (p EmailPreferencePatch) Apply(row *EmailPreference) {
	set := func(dst **bool, v *bool) {
		if v != nil {
			b := *v
			*dst = &b
		}
	}
	set(&row.Investment, p.Investment)
	set(&row.Update, p.Update)
	set(&row.Return, p.Return)
	set(&row.Welcome, p.Welcome)
	set(&row.New, p.New)
	set(&row.Transaction, p.Transaction)
	set(&row.Visit, p.Visit)
	set(&row.Marketing, p.Marketing)
}
