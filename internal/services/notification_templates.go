package services

import "github.com/charlesng35/taskflow/pkg/mail"

// DefaultNotificationTemplates returns the plain-text templates for every NotificationKind.
func DefaultNotificationTemplates() map[string]mail.Template {
	return map[string]mail.Template{
		string(NotifyVerifyEmail): {
			Subject: "Verify your TaskFlow email address",
			Body: `Hi {{.username}},

Thanks for creating {{.organization}} on TaskFlow. Please confirm your email address
by opening the link below. The link is valid for 24 hours.

{{.link}}

If you did not create this account you can ignore this email.
`,
		},
		string(NotifyApproveEmployee): {
			Subject: "{{.memberName}} wants to join {{.organization}}",
			Body: `Hi {{.ownerName}},

{{.memberName}} ({{.memberEmail}}) has requested to join {{.organization}} on TaskFlow.
Review the request using the link below. The link is valid for 7 days.

{{.link}}
`,
		},
		string(NotifyActivateAccount): {
			Subject: "Your TaskFlow account has been approved",
			Body: `Hi {{.username}},

Your request to join {{.organization}} has been approved. Activate your account
by opening the link below. The link is valid for 24 hours.

{{.link}}
`,
		},
		string(NotifyEmployeeRejected): {
			Subject: "Your request to join {{.organization}}",
			Body: `Hi {{.username}},

Your request to join {{.organization}} on TaskFlow was declined and your registration
has been removed. Contact your organization administrator if you think this is a mistake.
`,
		},
		string(NotifyResetPassword): {
			Subject: "Reset your TaskFlow password",
			Body: `Hi {{.username}},

We received a request to reset your password. Choose a new password using the link
below. The link is valid for 1 hour.

{{.link}}

If you did not request a reset you can ignore this email.
`,
		},
		string(NotifyContactRequest): {
			Subject: "New contact request from {{.name}}",
			Body: `Name: {{.name}}
Email: {{.email}}

{{.message}}
`,
		},
		string(NotifyTaskAssigned): {
			Subject: "New task assigned: {{.taskTitle}}",
			Body: `Hi {{.assignee}},

{{.assigner}} assigned you the task "{{.taskTitle}}".

{{.link}}
`,
		},
	}
}
