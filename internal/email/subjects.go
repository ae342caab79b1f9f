package email

const (
	subjectReminderFmt  = "Herinnering: uw afspraak op %s"
	subjectConfirmation = "Uw afspraak is ingepland"
)
