package dto

type CreateReminderRequest struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Description  string `json:"description"`
	EmailEnabled bool   `json:"email_enabled"`
	Email        string `json:"email"`
	SMSEnabled   bool   `json:"sms_enabled"`
	Phone        string `json:"phone"`
}

// UpdateReminderRequest carries optional fields; nil leaves the stored value
// untouched. Changing Date or Time resets the notification-sent flag.
type UpdateReminderRequest struct {
	Title        *string `json:"title"`
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	Description  *string `json:"description"`
	EmailEnabled *bool   `json:"email_enabled"`
	Email        *string `json:"email"`
	SMSEnabled   *bool   `json:"sms_enabled"`
	Phone        *string `json:"phone"`
}
