package email

const (
	subjectApplicationAccepted = "Zusage für Ihre Wohnungsbewerbung"
	subjectApplicationRejected = "Ihre Wohnungsbewerbung"
	subjectViewingInvite       = "Einladung zur Wohnungsbesichtigung"
)
