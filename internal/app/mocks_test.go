package app

import (
	"io"
	"sort"
	"sync"

	"github.com/yourusername/soundclip-go/internal/domain"
	"github.com/yourusername/soundclip-go/internal/infrastructure"
)

// mockJobRepo implements domain.JobRepository in memory
type mockJobRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]domain.Job)}
}

func (m *mockJobRepo) Create(job *domain.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockJobRepo) Update(job *domain.Job) error {
	return m.Create(job)
}

func (m *mockJobRepo) FindByID(id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		return &job, nil
	}
	return nil, nil
}

func (m *mockJobRepo) FindAll(filters map[string]interface{}, limit int) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var jobs []*domain.Job
	for _, job := range m.jobs {
		job := job
		if status, ok := filters["status"]; ok && status != job.Status {
			continue
		}
		jobs = append(jobs, &job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (m *mockJobRepo) FindLatest() (*domain.Job, error) {
	jobs, _ := m.FindAll(nil, 1)
	if len(jobs) == 0 {
		return nil, nil
	}
	return jobs[0], nil
}

func (m *mockJobRepo) GetStats() (*domain.JobStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &domain.JobStats{Total: int64(len(m.jobs))}
	for _, job := range m.jobs {
		switch job.Status {
		case domain.JobRunning:
			stats.Running++
		case domain.JobCompleted:
			stats.Completed++
		case domain.JobFailed:
			stats.Failed++
		case domain.JobCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (m *mockJobRepo) ResetOrphanedRunning() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, job := range m.jobs {
		if job.Status == domain.JobRunning {
			job.Status = domain.JobFailed
			m.jobs[id] = job
			count++
		}
	}
	return count, nil
}

// pipeProcess is a fake yt-dlp whose output and exit the test drives
type pipeProcess struct {
	pid     int
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter
	exit    chan int
	once    sync.Once
}

func newPipeProcess(pid int) *pipeProcess {
	p := &pipeProcess{pid: pid, exit: make(chan int, 1)}
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	return p
}

func (p *pipeProcess) ID() int           { return p.pid }
func (p *pipeProcess) Stdout() io.Reader { return p.stdoutR }
func (p *pipeProcess) Stderr() io.Reader { return p.stderrR }
func (p *pipeProcess) Wait() (int, error) {
	return <-p.exit, nil
}

func (p *pipeProcess) print(line string) {
	io.WriteString(p.stdoutW, line+"\n")
}

func (p *pipeProcess) finish(code int) {
	p.once.Do(func() {
		p.stdoutW.Close()
		p.stderrW.Close()
		p.exit <- code
	})
}

// fakeControl hands out pipeProcesses
type fakeControl struct {
	mu      sync.Mutex
	nextPID int
	spawned chan *pipeProcess
	procs   map[int]*pipeProcess
}

func newFakeControl() *fakeControl {
	return &fakeControl{
		nextPID: 100,
		spawned: make(chan *pipeProcess, 8),
		procs:   make(map[int]*pipeProcess),
	}
}

func (c *fakeControl) Spawn(binary string, args ...string) (infrastructure.Process, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextPID++
	p := newPipeProcess(c.nextPID)
	c.procs[p.pid] = p
	c.spawned <- p
	return p, nil
}

func (c *fakeControl) KillTree(pid int) error {
	c.mu.Lock()
	p := c.procs[pid]
	c.mu.Unlock()

	if p != nil {
		p.finish(-9)
	}
	return nil
}

// recordingEvents collects events delivered to the event stream
type recordingEvents struct {
	mu        sync.Mutex
	progress  []float64
	lines     []string
	outcomes  []domain.TerminalOutcome
	updateLog []string
}

func (r *recordingEvents) OnProgress(percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, percent)
}

func (r *recordingEvents) OnLog(stream domain.Stream, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, string(stream)+":"+line)
}

func (r *recordingEvents) OnComplete(outcome domain.TerminalOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingEvents) OnUpdateLog(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateLog = append(r.updateLog, message)
}

func (r *recordingEvents) completed() []domain.TerminalOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TerminalOutcome(nil), r.outcomes...)
}
