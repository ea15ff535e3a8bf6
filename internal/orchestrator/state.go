package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StepStatus — итоговый статус шага установки.
type StepStatus string

const (
	// StepSucceeded — шаг выполнен.
	StepSucceeded StepStatus = "succeeded"

	// StepFailed — шаг прервал установку.
	StepFailed StepStatus = "failed"

	// StepWarned — шаг не удался, но установка продолжена
	// в деградированном режиме.
	StepWarned StepStatus = "warned"

	// StepSkipped — шаг не выполнялся из-за более ранней ошибки.
	StepSkipped StepStatus = "skipped"
)

// StepResult — запись о выполнении одного шага.
type StepResult struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	DurationMS int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
}

// RunState — состояние одного прогона установщика в памяти.
//
// Создаётся в начале Run и живёт до записи отчёта. Шаги добавляются
// по мере выполнения, в порядке выполнения.
type RunState struct {
	mu sync.Mutex

	runID     uuid.UUID
	startedAt time.Time
	steps     []StepResult
}

// NewRunState создаёт RunState с новым идентификатором прогона.
func NewRunState() *RunState {
	return &RunState{
		runID:     uuid.New(),
		startedAt: time.Now().UTC(),
	}
}

// RunID возвращает идентификатор прогона.
func (s *RunState) RunID() uuid.UUID {
	return s.runID
}

// Record добавляет запись о выполненном шаге.
func (s *RunState) Record(name string, status StepStatus, d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := StepResult{
		Name:       name,
		Status:     status,
		DurationMS: d.Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	s.steps = append(s.steps, result)
}

// Steps возвращает копию записей в порядке выполнения.
func (s *RunState) Steps() []StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StepResult, len(s.steps))
	copy(out, s.steps)
	return out
}

// Failed сообщает, есть ли среди шагов фатальная ошибка.
func (s *RunState) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, step := range s.steps {
		if step.Status == StepFailed {
			return true
		}
	}
	return false
}

// Warned сообщает, есть ли среди шагов нефатальные ошибки.
func (s *RunState) Warned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, step := range s.steps {
		if step.Status == StepWarned {
			return true
		}
	}
	return false
}
