package model

// NotificationType is the closed set of notification kinds. Each kind owns a
// row in typeTable; anything outside the table is rejected by Valid.
type NotificationType string

const (
	TypeInvestment  NotificationType = "investment"
	TypeUpdate      NotificationType = "update"
	TypeReturn      NotificationType = "return"
	TypeWelcome     NotificationType = "welcome"
	TypeNew         NotificationType = "new"
	TypeTransaction NotificationType = "transaction"
	TypeVisit       NotificationType = "visit"
)

// PreferenceMarketing is an email preference key with no notification type of
// its own; marketing mail is opt-in.
const PreferenceMarketing = "marketing"

type EmailTemplate string

const (
	TemplateWelcome     EmailTemplate = "welcome"
	TemplateInvestment  EmailTemplate = "investment"
	TemplateUpdate      EmailTemplate = "update"
	TemplateReturn      EmailTemplate = "return"
	TemplateTransaction EmailTemplate = "transaction"
	TemplateNew         EmailTemplate = "new"
	TemplateVisit       EmailTemplate = "visit"
	TemplateDefault     EmailTemplate = "default"
)

type TypeInfo struct {
	Color    string
	Icon     string
	Template EmailTemplate
	CTAPath  string
}

var typeTable = map[NotificationType]TypeInfo{
	TypeInvestment:  {Color: "green", Icon: "trending-up", Template: TemplateInvestment, CTAPath: "/portfolio"},
	TypeUpdate:      {Color: "blue", Icon: "info", Template: TemplateUpdate, CTAPath: "/portfolio"},
	TypeReturn:      {Color: "emerald", Icon: "dollar-sign", Template: TemplateReturn, CTAPath: "/portfolio"},
	TypeWelcome:     {Color: "purple", Icon: "smile", Template: TemplateWelcome, CTAPath: "/discover"},
	TypeNew:         {Color: "amber", Icon: "sparkles", Template: TemplateNew, CTAPath: "/discover"},
	TypeTransaction: {Color: "indigo", Icon: "credit-card", Template: TemplateTransaction, CTAPath: "/wallet"},
	TypeVisit:       {Color: "teal", Icon: "calendar", Template: TemplateVisit, CTAPath: "/bookings"},
}

var defaultTypeInfo = TypeInfo{Color: "gray", Icon: "bell", Template: TemplateDefault, CTAPath: "/notifications"}

// AllTypes returns the notification types in a stable order.
func AllTypes() []NotificationType {
	return []NotificationType{
		TypeInvestment, TypeUpdate, TypeReturn, TypeWelcome, TypeNew, TypeTransaction, TypeVisit,
	}
}

func (t NotificationType) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// Info returns the display and email mapping for t. Rows written with a type
// outside the closed set (other writers share the table) get the default row.
func (t NotificationType) Info() TypeInfo {
	if info, ok := typeTable[t]; ok {
		return info
	}
	return defaultTypeInfo
}

func ParseNotificationType(s string) (NotificationType, bool) {
	t := NotificationType(s)
	return t, t.Valid()
}
