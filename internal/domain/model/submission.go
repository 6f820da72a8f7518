package model

import "time"

type Verdict string

const (
	VerdictOK                  Verdict = "OK"
	VerdictFailed              Verdict = "FAILED"
	VerdictPartial             Verdict = "PARTIAL"
	VerdictCompilationError    Verdict = "COMPILATION_ERROR"
	VerdictRuntimeError        Verdict = "RUNTIME_ERROR"
	VerdictWrongAnswer         Verdict = "WRONG_ANSWER"
	VerdictTimeLimitExceeded   Verdict = "TIME_LIMIT_EXCEEDED"
	VerdictMemoryLimitExceeded Verdict = "MEMORY_LIMIT_EXCEEDED"
	VerdictIdlenessLimit       Verdict = "IDLENESS_LIMIT_EXCEEDED"
	VerdictSkipped             Verdict = "SKIPPED"
	VerdictChallenged          Verdict = "CHALLENGED"
	VerdictTesting             Verdict = "TESTING" // Still being judged upstream
)

// Submission is one judged submission as reported by user.status.
// Verdict is empty while the upstream has not judged it yet.
type Submission struct {
	ID                  int64     `json:"id"`
	ContestID           int       `json:"contest_id"`
	CreationTimeSeconds int64     `json:"creation_time_seconds"`
	Problem             Problem   `json:"problem"`
	Verdict             Verdict   `json:"verdict"`
	ProgrammingLanguage string    `json:"programming_language"`
	PassedTestCount     int       `json:"passed_test_count"`
	TimeConsumedMillis  int       `json:"time_consumed_millis"`
	MemoryConsumedBytes int64     `json:"memory_consumed_bytes"`
}

func (s Submission) Accepted() bool {
	return s.Verdict == VerdictOK
}

func (s Submission) SubmittedAt() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0).UTC()
}
