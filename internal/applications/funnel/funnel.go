// Package funnel aggregates an application pool into stage counts and
// stage-to-stage conversion rates.
package funnel

import (
	"math"
	"sort"

	"tenant_portal_backend/internal/applications/domain"
)

// Stage names in report order.
const (
	StageTotalLeads       = "total_leads"
	StageDossierSubmitted = "dossier_submitted"
	StageViewingScheduled = "viewing_scheduled"
	StageQualified        = "qualified"
	StageSelected         = "selected"
)

// DayLayout formats the calendar-day buckets.
const DayLayout = "2006-01-02"

// stages maps each stage after total_leads to the status it counts.
var stages = []struct {
	name   string
	status domain.Status
}{
	{StageDossierSubmitted, domain.StatusDossierSubmitted},
	{StageViewingScheduled, domain.StatusViewingScheduled},
	{StageQualified, domain.StatusQualified},
	{StageSelected, domain.StatusSelected},
}

type StageCount struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

// Conversion is the percentage of the previous stage that reached the next.
type Conversion struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// Bucket is a simple grouping count.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Report is the aggregated funnel.
type Report struct {
	Stages      []StageCount `json:"stages"`
	Conversions []Conversion `json:"conversions"`
	ByPortal    []Bucket     `json:"by_portal"`
	ByDay       []Bucket     `json:"by_day"`
	ByStatus    []Bucket     `json:"by_status"`
}

// Aggregate builds the report. Stage counts are a snapshot of leads whose
// current status equals the stage; total_leads counts every lead.
func Aggregate(leads []domain.Lead) Report {
	byStatus := make(map[domain.Status]int)
	byPortal := make(map[domain.SourcePortal]int)
	byDay := make(map[string]int)

	for _, l := range leads {
		byStatus[l.Status]++
		byPortal[l.SourcePortal]++
		byDay[l.CreatedAt.UTC().Format(DayLayout)]++
	}

	report := Report{
		Stages:      make([]StageCount, 0, len(stages)+1),
		Conversions: make([]Conversion, 0, len(stages)),
	}
	report.Stages = append(report.Stages, StageCount{Stage: StageTotalLeads, Count: len(leads)})
	for _, s := range stages {
		report.Stages = append(report.Stages, StageCount{Stage: s.name, Count: byStatus[s.status]})
	}
	for i := 1; i < len(report.Stages); i++ {
		prev, next := report.Stages[i-1], report.Stages[i]
		report.Conversions = append(report.Conversions, Conversion{
			From: prev.Stage,
			To:   next.Stage,
			Rate: ConversionRate(next.Count, prev.Count),
		})
	}

	report.ByPortal = make([]Bucket, 0, len(domain.Portals()))
	for _, p := range domain.Portals() {
		report.ByPortal = append(report.ByPortal, Bucket{Key: string(p), Count: byPortal[p]})
	}

	report.ByStatus = make([]Bucket, 0, len(domain.Statuses()))
	for _, st := range domain.Statuses() {
		report.ByStatus = append(report.ByStatus, Bucket{Key: string(st), Count: byStatus[st]})
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	report.ByDay = make([]Bucket, 0, len(days))
	for _, d := range days {
		report.ByDay = append(report.ByDay, Bucket{Key: d, Count: byDay[d]})
	}

	return report
}

// ConversionRate returns next/prev as a percentage rounded to one decimal.
// A zero denominator yields 0.
func ConversionRate(next, prev int) float64 {
	if prev <= 0 || next <= 0 {
		return 0
	}
	return math.Round(float64(next)/float64(prev)*1000) / 10
}
