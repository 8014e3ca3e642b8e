package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// JobStatus is the lifecycle state of a job. The stored value is the
// canonical code; labels exist only for display and legacy parsing.
type JobStatus string

const (
	JobStatusNew             JobStatus = "new"
	JobStatusAssigned        JobStatus = "assigned"
	JobStatusPendingApproval JobStatus = "pending_approval"
	JobStatusApproved        JobStatus = "approved"
	JobStatusFinalized       JobStatus = "finalized"
)

// jobStatusLabels maps each status to its Vietnamese display name. Legacy
// rows carry either this label or its ASCII transliteration.
var jobStatusLabels = map[JobStatus]string{
	JobStatusNew:             "Mới",
	JobStatusAssigned:        "Đã phân công",
	JobStatusPendingApproval: "Chờ duyệt",
	JobStatusApproved:        "Đã duyệt",
	JobStatusFinalized:       "Hoàn thành",
}

var jobStatusByKey = buildLookup(jobStatusLabels)

// JobStatuses returns every status in lifecycle order
func JobStatuses() []JobStatus {
	return []JobStatus{
		JobStatusNew,
		JobStatusAssigned,
		JobStatusPendingApproval,
		JobStatusApproved,
		JobStatusFinalized,
	}
}

// jobTransitions lists the allowed next states
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusNew:             {JobStatusAssigned},
	JobStatusAssigned:        {JobStatusPendingApproval},
	JobStatusPendingApproval: {JobStatusApproved, JobStatusAssigned},
	JobStatusApproved:        {JobStatusFinalized},
	JobStatusFinalized:       {},
}

// IsValid checks if the status is a known canonical value
func (s JobStatus) IsValid() bool {
	_, ok := jobStatusLabels[s]
	return ok
}

// Label returns the Vietnamese display name
func (s JobStatus) Label() string {
	if l, ok := jobStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ASCIILabel returns the transliterated display name used by legacy deployments
func (s JobStatus) ASCIILabel() string {
	return asciiFold(s.Label())
}

// IsReadOnly reports whether the job may no longer be changed
func (s JobStatus) IsReadOnly() bool {
	return s == JobStatusFinalized
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, n := range jobTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// ParseJobStatus accepts the canonical code, the Vietnamese label or its
// ASCII transliteration, ignoring case, accents and separators.
func ParseJobStatus(raw string) (JobStatus, bool) {
	s, ok := jobStatusByKey[lookupKey(raw)]
	return s, ok
}

// JobType is the kind of field work
type JobType string

const (
	JobTypeNewInstall JobType = "new_install"
	JobTypeWarranty   JobType = "warranty"
	JobTypeRepair     JobType = "repair"
)

var jobTypeLabels = map[JobType]string{
	JobTypeNewInstall: "Lắp mới",
	JobTypeWarranty:   "Bảo hành",
	JobTypeRepair:     "Sửa chữa",
}

var jobTypeByKey = buildLookup(jobTypeLabels)

// IsValid checks if the job type is a known canonical value
func (t JobType) IsValid() bool {
	_, ok := jobTypeLabels[t]
	return ok
}

// Label returns the Vietnamese display name
func (t JobType) Label() string {
	if l, ok := jobTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// ParseJobType accepts the canonical code or either display encoding
func ParseJobType(raw string) (JobType, bool) {
	t, ok := jobTypeByKey[lookupKey(raw)]
	return t, ok
}

func buildLookup[T ~string](labels map[T]string) map[string]T {
	out := make(map[string]T, len(labels)*2)
	for code, label := range labels {
		out[lookupKey(string(code))] = code
		out[lookupKey(label)] = code
	}
	return out
}

var separatorReplacer = strings.NewReplacer(" ", "_", "-", "_")

func lookupKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(asciiFold(raw)))
	return separatorReplacer.Replace(key)
}

// asciiFold strips Vietnamese diacritics. đ/Đ are separate letters rather
// than combining marks so they are mapped explicitly.
func asciiFold(s string) string {
	s = strings.NewReplacer("đ", "d", "Đ", "D").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
