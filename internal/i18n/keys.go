package i18n

// Message keys resolved through the catalog.
const (
	KeyChooseLanguage     = "language.choose"
	KeyInvalidLanguage    = "language.invalid"
	KeyWelcome            = "menu.welcome"
	KeyInvalidMenuOption  = "menu.invalid"
	KeyButtonPlan         = "button.plan"
	KeyButtonRegister     = "button.register"
	KeyButtonAsk          = "button.ask"
	KeyButtonChangeLang   = "button.change_language"
	KeyButtonCancel       = "button.cancel"
	KeyButtonSendContact  = "button.send_contact"
	KeyButtonYes          = "button.yes"
	KeyButtonNo           = "button.no"
	KeyCancelled          = "cancelled"
	KeyAlreadyRegistered  = "register.already"
	KeyEnterName          = "register.name"
	KeyNameTooLong        = "register.name_too_long"
	KeyEnterOrganization  = "register.organization"
	KeyOrgTooLong         = "register.organization_too_long"
	KeyEnterPhone         = "register.phone"
	KeyInvalidPhone       = "register.phone_invalid"
	KeyChooseDate         = "register.date"
	KeyDateFirst          = "register.date_first"
	KeyDateSecond         = "register.date_second"
	KeyInvalidOption      = "register.option_invalid"
	KeyNeedHotel          = "register.hotel"
	KeyRegistrationDone   = "register.accepted"
	KeyRegistrationFailed = "register.not_accepted"
	KeyChooseSpeaker      = "question.speaker"
	KeyInvalidSpeaker     = "question.speaker_invalid"
	KeyEnterQuestion      = "question.body"
	KeyQuestionTooLong    = "question.too_long"
	KeyQuestionRejected   = "question.rejected"
	KeyQuestionSent       = "question.sent"
	KeyPlanUnavailable    = "plan.unavailable"
	KeySomethingWrong     = "error.generic"
)
