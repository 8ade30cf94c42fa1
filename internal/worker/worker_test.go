package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consult-scheduler/internal/mail"
	"consult-scheduler/internal/model"
	"consult-scheduler/internal/store"
)

var base = time.Date(2026, 10, 21, 9, 50, 0, 0, time.UTC)

type sent struct {
	to   mail.Recipient
	kind mail.Kind
	data mail.Data
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sent
	failFor map[string]bool
}

func (f *fakeMailer) Send(ctx context.Context, to mail.Recipient, kind mail.Kind, data mail.Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[data.AppointmentID] {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sent{to: to, kind: kind, data: data})
	return nil
}

func (f *fakeMailer) count(kind mail.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

func seed(t *testing.T, m *store.Memory, start time.Time, status model.Status) *model.Appointment {
	t.Helper()
	a := &model.Appointment{
		ID:           uuid.New().String(),
		SubjectID:    uuid.New().String(),
		SubjectName:  "Asha",
		SubjectEmail: "asha@example.com",
		ConsultantID: uuid.New().String(),
		CalendarDate: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		SlotLabel:    start.Format("15:04"),
		SlotStart:    start,
		SlotEnd:      start.Add(30 * time.Minute),
		Status:       status,
	}
	require.NoError(t, m.InsertAppointment(context.Background(), a))
	return a
}

func fixed(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestReminderIdempotency(t *testing.T) {
	mem := store.NewMemory()
	a := seed(t, mem, base.Add(10*time.Minute), model.StatusConfirmed)
	mailer := &fakeMailer{}
	r := NewReminder(mem, mailer, 15*time.Minute, nil).WithClock(fixed(base))

	res, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Due: 1, Sent: 1}, res)

	got, err := mem.GetAppointment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)

	res, err = r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Due)
	assert.Equal(t, 1, mailer.count(mail.KindReminder))
}

func TestReminderRetriesAfterFailedSend(t *testing.T) {
	mem := store.NewMemory()
	a := seed(t, mem, base.Add(10*time.Minute), model.StatusConfirmed)
	mailer := &fakeMailer{failFor: map[string]bool{a.ID: true}}
	r := NewReminder(mem, mailer, 15*time.Minute, nil).WithClock(fixed(base))

	res, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Due: 1, Failed: 1}, res)

	got, _ := mem.GetAppointment(context.Background(), a.ID)
	assert.False(t, got.ReminderSent)

	mailer.failFor = nil
	res, err = r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Due: 1, Sent: 1}, res)
}

func TestReminderFailureDoesNotAbortBatch(t *testing.T) {
	mem := store.NewMemory()
	bad := seed(t, mem, base.Add(5*time.Minute), model.StatusConfirmed)
	good := seed(t, mem, base.Add(10*time.Minute), model.StatusConfirmed)
	mailer := &fakeMailer{failFor: map[string]bool{bad.ID: true}}
	r := NewReminder(mem, mailer, 15*time.Minute, nil).WithClock(fixed(base))

	res, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Due: 2, Sent: 1, Failed: 1}, res)

	got, _ := mem.GetAppointment(context.Background(), good.ID)
	assert.True(t, got.ReminderSent)
}

func TestReminderWindow(t *testing.T) {
	mem := store.NewMemory()
	atNow := seed(t, mem, base, model.StatusConfirmed)
	atEdge := seed(t, mem, base.Add(15*time.Minute), model.StatusConfirmed)
	tooFar := seed(t, mem, base.Add(20*time.Minute), model.StatusConfirmed)
	started := seed(t, mem, base.Add(-10*time.Minute), model.StatusConfirmed)
	pending := seed(t, mem, base.Add(10*time.Minute), model.StatusPending)
	mailer := &fakeMailer{}
	r := NewReminder(mem, mailer, 15*time.Minute, nil).WithClock(fixed(base))

	res, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)

	for _, a := range []*model.Appointment{atNow, atEdge} {
		got, _ := mem.GetAppointment(context.Background(), a.ID)
		assert.True(t, got.ReminderSent, a.SlotLabel)
	}
	for _, a := range []*model.Appointment{tooFar, started, pending} {
		got, _ := mem.GetAppointment(context.Background(), a.ID)
		assert.False(t, got.ReminderSent, a.SlotLabel)
	}
}

// pageRecorder records the page bounds each fetch asked for.
type pageRecorder struct {
	*store.Memory
	pages [][2]int
}

func (p *pageRecorder) FindAppointments(ctx context.Context, f model.Filter) ([]model.Appointment, error) {
	p.pages = append(p.pages, [2]int{f.Offset, f.Limit})
	return p.Memory.FindAppointments(ctx, f)
}

func TestReminderPagesThroughBatches(t *testing.T) {
	mem := &pageRecorder{Memory: store.NewMemory()}
	for i := 0; i < 5; i++ {
		seed(t, mem.Memory, base.Add(time.Duration(i+1)*time.Minute), model.StatusConfirmed)
	}
	r := NewReminder(mem, &fakeMailer{}, 15*time.Minute, nil).WithClock(fixed(base)).WithBatchSize(2)

	res, err := r.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderResult{Due: 5, Sent: 5}, res)
	assert.Equal(t, [][2]int{{0, 2}, {0, 2}, {0, 2}}, mem.pages)
}

func TestReminderFailuresDoNotStarveLaterReminders(t *testing.T) {
	mem := store.NewMemory()
	failFor := map[string]bool{}
	for i := 0; i < 3; i++ {
		failFor[seed(t, mem, base.Add(time.Duration(i+1)*time.Minute), model.StatusConfirmed).ID] = true
	}
	later := seed(t, mem, base.Add(10*time.Minute), model.StatusConfirmed)
	mailer := &fakeMailer{failFor: failFor}
	r := NewReminder(mem, mailer, 15*time.Minute, nil).WithClock(fixed(base)).WithBatchSize(2)

	for tick := 0; tick < 2; tick++ {
		res, err := r.Tick(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, res.Failed)
	}

	got, err := mem.GetAppointment(context.Background(), later.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)
	assert.Equal(t, 1, mailer.count(mail.KindReminder))
}

type failingFinder struct{ *store.Memory }

func (failingFinder) FindAppointments(context.Context, model.Filter) ([]model.Appointment, error) {
	return nil, errors.New("db down")
}

func TestReminderFetchError(t *testing.T) {
	r := NewReminder(failingFinder{store.NewMemory()}, &fakeMailer{}, 15*time.Minute, nil)
	_, err := r.Tick(context.Background())
	assert.Error(t, err)
}

func TestReminderRunStopsOnCancel(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, base.Add(10*time.Minute), model.StatusConfirmed)
	mailer := &fakeMailer{}
	r := NewReminder(mem, mailer, 15*time.Minute, nil).WithClock(fixed(base)).WithInterval(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return mailer.count(mail.KindReminder) == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, mailer.count(mail.KindReminder))
}

func TestSweeperAutoCompletesConfirmedOnly(t *testing.T) {
	mem := store.NewMemory()
	now := base.Add(2 * time.Hour)
	confirmed := seed(t, mem, base, model.StatusConfirmed)
	pending := seed(t, mem, base, model.StatusPending)
	running := seed(t, mem, now.Add(-10*time.Minute), model.StatusConfirmed)
	mailer := &fakeMailer{}
	s := NewSweeper(mem, mailer, 30*24*time.Hour, nil).WithClock(fixed(now))

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
	assert.EqualValues(t, 0, res.Purged)

	got, _ := mem.GetAppointment(context.Background(), confirmed.ID)
	assert.Equal(t, model.StatusCompleted, got.Status)
	got, _ = mem.GetAppointment(context.Background(), pending.ID)
	assert.Equal(t, model.StatusPending, got.Status, "elapsed pending appointments are never completed")
	got, _ = mem.GetAppointment(context.Background(), running.ID)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	assert.Equal(t, 1, mailer.count(mail.KindCompleted))
}

func TestSweeperRetention(t *testing.T) {
	mem := store.NewMemory()
	now := base
	old := seed(t, mem, now.Add(-31*24*time.Hour), model.StatusCompleted)
	recent := seed(t, mem, now.Add(-29*24*time.Hour), model.StatusCompleted)
	cancelled := seed(t, mem, now.Add(-40*24*time.Hour), model.StatusCancelled)
	s := NewSweeper(mem, &fakeMailer{}, 30*24*time.Hour, nil).WithClock(fixed(now))

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Purged)

	_, err = mem.GetAppointment(context.Background(), old.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = mem.GetAppointment(context.Background(), recent.ID)
	assert.NoError(t, err)
	_, err = mem.GetAppointment(context.Background(), cancelled.ID)
	assert.NoError(t, err)
}

func TestSweeperNoMatchesIsNoop(t *testing.T) {
	s := NewSweeper(store.NewMemory(), &fakeMailer{}, 30*24*time.Hour, nil).WithClock(fixed(base))
	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)
}

func TestSweeperCompletionMailFailureIsSwallowed(t *testing.T) {
	mem := store.NewMemory()
	a := seed(t, mem, base, model.StatusConfirmed)
	s := NewSweeper(mem, &fakeMailer{failFor: map[string]bool{a.ID: true}}, 30*24*time.Hour, nil).
		WithClock(fixed(base.Add(time.Hour)))

	res, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
}

type brokenBulk struct{ *store.Memory }

func (brokenBulk) UpdateStatusWhere(context.Context, model.Filter, model.Status, time.Time) ([]model.Appointment, error) {
	return nil, errors.New("lock timeout")
}

func TestSweeperPassesAreIndependent(t *testing.T) {
	mem := store.NewMemory()
	seed(t, mem, base.Add(-31*24*time.Hour), model.StatusCompleted)
	s := NewSweeper(brokenBulk{mem}, &fakeMailer{}, 30*24*time.Hour, nil).WithClock(fixed(base))

	res, err := s.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto-complete")
	assert.EqualValues(t, 1, res.Purged)
}
