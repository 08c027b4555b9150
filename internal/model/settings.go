package model

// Bot personalities
const (
	PersonalityFriendly     = "friendly"
	PersonalityProfessional = "professional"
	PersonalityEfficient    = "efficient"
	PersonalityEmpathetic   = "empathetic"
)

// ValidPersonality reports whether p is a known personality.
func ValidPersonality(p string) bool {
	switch p {
	case PersonalityFriendly, PersonalityProfessional, PersonalityEfficient, PersonalityEmpathetic:
		return true
	}
	return false
}

// StoreSettings is the per-tenant configuration consumed by the prompt
// assembler and the escalation notifier. An explicit schema: unknown keys in
// an update are rejected by typed binding instead of silently merged in.
type StoreSettings struct {
	WelcomeMessage  string      `bson:"welcome_message,omitempty" json:"welcome_message,omitempty"`
	ReturnPolicy    string      `bson:"return_policy,omitempty" json:"return_policy,omitempty"`
	ShippingPolicy  string      `bson:"shipping_policy,omitempty" json:"shipping_policy,omitempty"`
	SupportEmail    string      `bson:"support_email,omitempty" json:"support_email,omitempty"`
	EscalationEmail string      `bson:"escalation_email,omitempty" json:"escalation_email,omitempty"`
	BotPersonality  string      `bson:"bot_personality,omitempty" json:"bot_personality,omitempty"`
	Theme           WidgetTheme `bson:"theme,omitempty" json:"theme,omitempty"`
}

// WidgetTheme is passed through to the storefront widget untouched.
type WidgetTheme struct {
	PrimaryColor string `bson:"primary_color,omitempty" json:"primary_color,omitempty"`
	Position     string `bson:"position,omitempty" json:"position,omitempty"`
}

// NotificationEmail returns the address escalations should go to: the
// dedicated escalation address if set, otherwise the support address.
func (s StoreSettings) NotificationEmail() string {
	if s.EscalationEmail != "" {
		return s.EscalationEmail
	}
	return s.SupportEmail
}

// SettingsPatch is a partial settings update. Nil fields are left untouched
// by Merge; empty strings clear the value.
type SettingsPatch struct {
	WelcomeMessage  *string      `json:"welcome_message,omitempty"`
	ReturnPolicy    *string      `json:"return_policy,omitempty"`
	ShippingPolicy  *string      `json:"shipping_policy,omitempty"`
	SupportEmail    *string      `json:"support_email,omitempty"`
	EscalationEmail *string      `json:"escalation_email,omitempty"`
	BotPersonality  *string      `json:"bot_personality,omitempty"`
	Theme           *WidgetTheme `json:"theme,omitempty"`
}

// Merge applies the patch to base and returns the result.
func (p SettingsPatch) Merge(base StoreSettings) StoreSettings {
	out := base
	if p.WelcomeMessage != nil {
		out.WelcomeMessage = *p.WelcomeMessage
	}
	if p.ReturnPolicy != nil {
		out.ReturnPolicy = *p.ReturnPolicy
	}
	if p.ShippingPolicy != nil {
		out.ShippingPolicy = *p.ShippingPolicy
	}
	if p.SupportEmail != nil {
		out.SupportEmail = *p.SupportEmail
	}
	if p.EscalationEmail != nil {
		out.EscalationEmail = *p.EscalationEmail
	}
	if p.BotPersonality != nil {
		out.BotPersonality = *p.BotPersonality
	}
	if p.Theme != nil {
		out.Theme = *p.Theme
	}
	return out
}

// Validate checks enum fields.
func (p SettingsPatch) Validate() error {
	if p.BotPersonality != nil && *p.BotPersonality != "" && !ValidPersonality(*p.BotPersonality) {
		return ErrInvalidPersonality
	}
	return nil
}
