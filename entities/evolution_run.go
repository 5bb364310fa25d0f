package entities

import "time"

type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

type FailureKind string

const (
	FailureKindNone      FailureKind = ""
	FailureKindService   FailureKind = "service"
	FailureKindParse     FailureKind = "parse"
	FailureKindSink      FailureKind = "sink"
	FailureKindCancelled FailureKind = "cancelled"
)

type EvolutionRun struct {
	ID          int64         `json:"id"`
	Concept     string        `json:"concept"`
	Stages      StageSequence `json:"stages"`
	Status      RunStatus     `json:"status"`
	FailureKind FailureKind   `json:"failure_kind"`
	Backend     string        `json:"backend"`
	CreatedAt   time.Time     `json:"created_at"`
}
