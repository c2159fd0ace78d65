package models

import (
	"regexp"
	"strings"
	"time"
)

var whitespace = regexp.MustCompile(`\s+`)

// DeriveBatchID derives the primary key of a batch from its cohort name:
// whitespace runs become hyphens and the result is lowercased. Two cohorts
// whose names differ only in spacing or case collide on purpose.
func DeriveBatchID(name string) string {
	return strings.ToLower(whitespace.ReplaceAllString(name, "-"))
}

// Batch lifecycle status values.
const (
	StatusActive    = "active"
	StatusGraduated = "graduated"
)

// Stakeholder roles tracked per batch.
const (
	RoleTrainer           = "trainer"
	RoleBehavioralTrainer = "behavioralTrainer"
	RoleMentor            = "mentor"
	RoleBuddyMentor       = "buddyMentor"
)

// Stakeholder categories.
const (
	CategoryInternal = "internal"
	CategoryExternal = "external"
)

// Trainee is one learner within a batch. Status fields are free text as
// reported by the coach, no enum is enforced.
type Trainee struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	EmployeeID        string   `json:"employeeId"`
	ScheduleAdherence string   `json:"scheduleAdherence"`
	LearningStatus    string   `json:"learningStatus"`
	InterimStatus     string   `json:"interimStatus"`
	FinalStatus       string   `json:"finalStatus"`
	QualifierScore    *float64 `json:"qualifierScore"`
	Eligibility       string   `json:"eligibility"`
}

// ScheduleStatus partitions trainees by schedule adherence. Rows whose
// adherence text matches none of the three categories are counted nowhere,
// so the sum can be less than the trainee count.
type ScheduleStatus struct {
	OnSchedule int `json:"onSchedule"`
	Behind     int `json:"behind"`
	Advanced   int `json:"advanced"`
}

type Milestone struct {
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

type Milestones struct {
	Qualifier Milestone `json:"qualifier"`
	Interim   Milestone `json:"interim"`
	Final     Milestone `json:"final"`
}

type RoomDetails struct {
	Building  string `json:"building"`
	Floor     int    `json:"floor"`
	OdcNumber string `json:"odcNumber"`
}

type StakeholderInfo struct {
	Name       string  `json:"name"`
	Hours      float64 `json:"hours"`
	HourlyRate float64 `json:"hourlyRate"`
	Category   string  `json:"category"`
}

type QualifierScores struct {
	Average  float64 `json:"average"`
	Highest  float64 `json:"highest"`
	Lowest   float64 `json:"lowest"`
	PassRate float64 `json:"passRate"`
}

// Batch is one training cohort. ID is derived from the cohort name
// (lowercased, whitespace collapsed to hyphens) and acts as the primary key;
// same-id records overwrite on upsert. Date and week fields are preserved
// verbatim from the source report, which guarantees no particular format.
type Batch struct {
	ID                string                     `json:"id"`
	Name              string                     `json:"name"`
	Description       string                     `json:"description"`
	TotalTrainees     int                        `json:"totalTrainees"`
	Trainer           string                     `json:"trainer"`
	BehavioralTrainer string                     `json:"behavioralTrainer"`
	Mentor            string                     `json:"mentor"`
	StartDate         string                     `json:"startDate"`
	EndDate           string                     `json:"endDate"`
	Status            string                     `json:"status"`
	CurrentWeek       string                     `json:"currentWeek"`
	TotalWeeks        string                     `json:"totalWeeks"`
	ScheduleStatus    ScheduleStatus             `json:"scheduleStatus"`
	Milestones        Milestones                 `json:"milestones"`
	RoomDetails       *RoomDetails               `json:"roomDetails,omitempty"`
	Stakeholders      map[string]StakeholderInfo `json:"stakeholders,omitempty"`
	QualifierScores   QualifierScores            `json:"qualifierScores"`
	Trainees          []Trainee                  `json:"trainees"`
}

// MergeResult is the outcome of a merge-upsert: the merged collection plus
// how many records were overwritten vs carried over untouched.
type MergeResult struct {
	Merged         []Batch `json:"merged,omitempty"`
	UpdatedCount   int     `json:"updatedCount"`
	PreservedCount int     `json:"preservedCount"`
}

// Attendance
type AttendanceRecord struct {
	Date   string `json:"date"`
	Status string `json:"status"` // present | absent
}

type TraineeAttendance struct {
	TraineeID    string             `json:"traineeId"`
	TraineeName  string             `json:"traineeName"`
	TraineeEmail string             `json:"traineeEmail"`
	Records      []AttendanceRecord `json:"records"`
}

type SaveAttendanceRequest struct {
	Date       string   `json:"date"`
	PresentIDs []string `json:"presentIds"`
	AbsentIDs  []string `json:"absentIds"`
}

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // report_ingested, batches_upserted, batch_updated
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Request DTOs

// UpdateBatchRequest carries field-level edits; nil fields are untouched.
type UpdateBatchRequest struct {
	Name              *string      `json:"name,omitempty"`
	Description       *string      `json:"description,omitempty"`
	Trainer           *string      `json:"trainer,omitempty"`
	BehavioralTrainer *string      `json:"behavioralTrainer,omitempty"`
	Mentor            *string      `json:"mentor,omitempty"`
	StartDate         *string      `json:"startDate,omitempty"`
	EndDate           *string      `json:"endDate,omitempty"`
	Status            *string      `json:"status,omitempty"`
	CurrentWeek       *string      `json:"currentWeek,omitempty"`
	TotalWeeks        *string      `json:"totalWeeks,omitempty"`
	RoomDetails       *RoomDetails `json:"roomDetails,omitempty"`
}

type UpdateTraineeRequest struct {
	Name              *string  `json:"name,omitempty"`
	Email             *string  `json:"email,omitempty"`
	EmployeeID        *string  `json:"employeeId,omitempty"`
	ScheduleAdherence *string  `json:"scheduleAdherence,omitempty"`
	LearningStatus    *string  `json:"learningStatus,omitempty"`
	InterimStatus     *string  `json:"interimStatus,omitempty"`
	FinalStatus       *string  `json:"finalStatus,omitempty"`
	QualifierScore    *float64 `json:"qualifierScore,omitempty"`
	Eligibility       *string  `json:"eligibility,omitempty"`
}

type AssignStakeholderRequest struct {
	Name       string  `json:"name"`
	Hours      float64 `json:"hours"`
	HourlyRate float64 `json:"hourlyRate"`
	Category   string  `json:"category,omitempty"`
}

type MilestoneDateRequest struct {
	Date      string `json:"date"`
	Completed *bool  `json:"completed,omitempty"`
}

// UploadResult is returned after a workbook upload.
type UploadResult struct {
	BatchesFound   int    `json:"batchesFound"`
	UpdatedCount   int    `json:"updatedCount"`
	PreservedCount int    `json:"preservedCount"`
	Message        string `json:"message"`
}
