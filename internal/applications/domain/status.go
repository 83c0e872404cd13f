// Package domain provides the core types and rules of the tenant
// application workflow.
package domain

// Status is the pipeline position of an application.
type Status string

const (
	StatusViewingRequested Status = "viewing_requested"
	StatusViewingScheduled Status = "viewing_scheduled"
	StatusViewingAttended  Status = "viewing_attended"
	StatusDossierRequested Status = "dossier_requested"
	StatusDossierSubmitted Status = "dossier_submitted"
	StatusQualified        Status = "qualified"
	StatusSelected         Status = "selected"
	StatusRejected         Status = "rejected"
)

// pipelineRank orders the non-terminal statuses. Terminal statuses rank
// above every other status.
var pipelineRank = map[Status]int{
	StatusViewingRequested: 0,
	StatusViewingScheduled: 1,
	StatusViewingAttended:  2,
	StatusDossierRequested: 3,
	StatusDossierSubmitted: 4,
	StatusQualified:        5,
	StatusSelected:         6,
	StatusRejected:         6,
}

// Statuses lists every status in pipeline order.
func Statuses() []Status {
	return []Status{
		StatusViewingRequested,
		StatusViewingScheduled,
		StatusViewingAttended,
		StatusDossierRequested,
		StatusDossierSubmitted,
		StatusQualified,
		StatusSelected,
		StatusRejected,
	}
}

func (s Status) Valid() bool {
	_, ok := pipelineRank[s]
	return ok
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusSelected || s == StatusRejected
}

// Rank returns the pipeline position, or -1 for an unknown status.
func (s Status) Rank() int {
	r, ok := pipelineRank[s]
	if !ok {
		return -1
	}
	return r
}

// IsPreQualification reports whether s sits before qualified.
func (s Status) IsPreQualification() bool {
	return s.Valid() && s.Rank() < pipelineRank[StatusQualified]
}

// RequiresHardPass reports whether a lead in s must pass every hard criterion.
func (s Status) RequiresHardPass() bool {
	return s == StatusQualified || s == StatusSelected
}

// SourcePortal identifies where the application came from.
type SourcePortal string

const (
	PortalHomegate    SourcePortal = "homegate"
	PortalFlatfox     SourcePortal = "flatfox"
	PortalImmoscout24 SourcePortal = "immoscout24"
	PortalDirect      SourcePortal = "direct"
	PortalOther       SourcePortal = "other"
)

// Portals lists every known source portal.
func Portals() []SourcePortal {
	return []SourcePortal{PortalHomegate, PortalFlatfox, PortalImmoscout24, PortalDirect, PortalOther}
}

func (p SourcePortal) Valid() bool {
	switch p {
	case PortalHomegate, PortalFlatfox, PortalImmoscout24, PortalDirect, PortalOther:
		return true
	}
	return false
}

// EmploymentStatus is the applicant's declared employment situation.
type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "employed"
	EmploymentSelfEmployed EmploymentStatus = "self_employed"
	EmploymentStudent      EmploymentStatus = "student"
	EmploymentRetired      EmploymentStatus = "retired"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentOther        EmploymentStatus = "other"
)

var employmentScores = map[EmploymentStatus]float64{
	EmploymentEmployed:     1,
	EmploymentSelfEmployed: 0.8,
	EmploymentRetired:      0.7,
	EmploymentOther:        0.5,
	EmploymentStudent:      0.4,
	EmploymentUnemployed:   0.1,
}

func (e EmploymentStatus) Valid() bool {
	_, ok := employmentScores[e]
	return ok
}

// Stability returns the employment sub-score in [0,1]. Unknown values score 0.
func (e EmploymentStatus) Stability() float64 {
	return employmentScores[e]
}

// EmploymentStatuses lists every known employment status.
func EmploymentStatuses() []EmploymentStatus {
	return []EmploymentStatus{
		EmploymentEmployed,
		EmploymentSelfEmployed,
		EmploymentStudent,
		EmploymentRetired,
		EmploymentUnemployed,
		EmploymentOther,
	}
}
