package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillhub-api/internal/models"
	"github.com/noah-isme/skillhub-api/internal/repository"
)

func claims(id string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: role, Email: id + "@example.com"}
}

type sqlmockTx struct {
	db *sqlx.DB
}

func (p *sqlmockTx) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return p.db.BeginTxx(ctx, opts)
}

func newSQLMockTx(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &sqlmockTx{db: sqlx.NewDb(db, "sqlmock")}, mock
}

type fakeCourses struct {
	items       map[string]*models.Course
	transitions []string
	seq         int
}

func newFakeCourses(items ...models.Course) *fakeCourses {
	f := &fakeCourses{items: map[string]*models.Course{}}
	for i := range items {
		c := items[i]
		f.items[c.ID] = &c
	}
	return f
}

func (f *fakeCourses) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range f.items {
		if filter.InstructorID != "" && c.InstructorID != filter.InstructorID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				match = match || c.Status == s
			}
			if !match {
				continue
			}
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourses) Create(ctx context.Context, item *models.Course) error {
	f.seq++
	item.ID = fmt.Sprintf("course-%d", f.seq)
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeCourses) Update(ctx context.Context, item *models.Course) error {
	if _, ok := f.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeCourses) SetThumbnail(ctx context.Context, id, url string) error {
	c, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.ThumbnailURL = url
	return nil
}

func (f *fakeCourses) TransitionStatus(ctx context.Context, id string, from, to models.CourseStatus, comment string) error {
	c, ok := f.items[id]
	if !ok || c.Status != from {
		return sql.ErrNoRows
	}
	c.Status = to
	c.AdminComment = comment
	f.transitions = append(f.transitions, string(from)+"->"+string(to))
	return nil
}

func (f *fakeCourses) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

type fakeCategoryChecker map[string]bool

func (f fakeCategoryChecker) Exists(ctx context.Context, id string) (bool, error) {
	return f[id], nil
}

type memStorage struct {
	files map[string][]byte
}

func newMemStorage() *memStorage { return &memStorage{files: map[string][]byte{}} }

func (m *memStorage) SaveStream(rel string, r io.Reader) (string, error) {
	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, r); err != nil {
		return "", err
	}
	m.files[rel] = buf.Bytes()
	return rel, nil
}

func (m *memStorage) Save(rel string, data []byte) (string, error) {
	m.files[rel] = data
	return rel, nil
}

func (m *memStorage) Delete(rel string) error {
	delete(m.files, rel)
	return nil
}

func (m *memStorage) CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error) {
	return nil, nil
}

func upload(name, body string) Upload {
	return Upload{Name: name, Size: int64(len(body)), Reader: bytes.NewBufferString(body)}
}

type fakeLessons struct {
	items  map[string]*models.Lesson
	videos map[string]*models.Video
	seq    int
}

func newFakeLessons(items ...models.Lesson) *fakeLessons {
	f := &fakeLessons{items: map[string]*models.Lesson{}, videos: map[string]*models.Video{}}
	for i := range items {
		l := items[i]
		f.items[l.ID] = &l
	}
	return f
}

func (f *fakeLessons) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range f.items {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeLessons) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	if l, ok := f.items[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLessons) orderTaken(item *models.Lesson) bool {
	for _, l := range f.items {
		if l.ID != item.ID && l.CourseID == item.CourseID && l.Order == item.Order {
			return true
		}
	}
	return false
}

func (f *fakeLessons) Create(ctx context.Context, item *models.Lesson) error {
	if f.orderTaken(item) {
		return repository.ErrDuplicate
	}
	f.seq++
	item.ID = fmt.Sprintf("lesson-%d", f.seq)
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeLessons) Update(ctx context.Context, item *models.Lesson) error {
	if f.orderTaken(item) {
		return repository.ErrDuplicate
	}
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeLessons) Delete(ctx context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func (f *fakeLessons) ListVideos(ctx context.Context, lessonID string) ([]models.Video, error) {
	var out []models.Video
	for _, v := range f.videos {
		if v.LessonID == lessonID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeLessons) FindVideo(ctx context.Context, id string) (*models.Video, error) {
	if v, ok := f.videos[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLessons) CreateVideo(ctx context.Context, item *models.Video) error {
	f.seq++
	item.ID = fmt.Sprintf("video-%d", f.seq)
	cp := *item
	f.videos[item.ID] = &cp
	return nil
}

func (f *fakeLessons) DeleteVideo(ctx context.Context, id string) error {
	delete(f.videos, id)
	return nil
}

type fakeEnrollments struct {
	items map[string]*models.Enrollment
	locks []string
	seq   int
}

func newFakeEnrollments(items ...models.Enrollment) *fakeEnrollments {
	f := &fakeEnrollments{items: map[string]*models.Enrollment{}}
	for i := range items {
		e := items[i]
		f.items[e.ID] = &e
	}
	return f
}

func (f *fakeEnrollments) FindByStudentAndCourse(ctx context.Context, exec sqlx.ExtContext, studentID, courseID string) (*models.Enrollment, error) {
	for _, e := range f.items {
		if e.StudentID == studentID && e.CourseID == courseID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollments) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Enrollment, error) {
	f.locks = append(f.locks, id)
	if e, ok := f.items[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollments) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := f.items[id]; ok {
		return &models.EnrollmentDetail{Enrollment: *e}, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollments) FindDetailByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.EnrollmentDetail, error) {
	e, err := f.FindByStudentAndCourse(ctx, nil, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return &models.EnrollmentDetail{Enrollment: *e}, nil
}

func (f *fakeEnrollments) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range f.items {
		if e.StudentID == studentID {
			out = append(out, models.EnrollmentDetail{Enrollment: *e})
		}
	}
	return out, nil
}

func (f *fakeEnrollments) ListRoster(ctx context.Context, courseID string) ([]models.RosterEntry, error) {
	var out []models.RosterEntry
	for _, e := range f.items {
		if e.CourseID == courseID {
			out = append(out, models.RosterEntry{EnrollmentID: e.ID, StudentID: e.StudentID, StudentName: "Student " + e.StudentID, Progress: e.Progress})
		}
	}
	return out, nil
}

func (f *fakeEnrollments) Create(ctx context.Context, exec sqlx.ExtContext, item *models.Enrollment) error {
	if _, err := f.FindByStudentAndCourse(ctx, exec, item.StudentID, item.CourseID); err == nil {
		return repository.ErrDuplicate
	}
	f.seq++
	item.ID = fmt.Sprintf("enr-%d", f.seq)
	cp := *item
	f.items[item.ID] = &cp
	return nil
}

func (f *fakeEnrollments) UpdateProgress(ctx context.Context, exec sqlx.ExtContext, id string, progress float64, completed bool) error {
	e, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Progress = progress
	e.Completed = completed
	return nil
}

func (f *fakeEnrollments) Touch(ctx context.Context, exec sqlx.ExtContext, id string) error {
	return nil
}

type fakeProgress struct {
	records      []models.Progress
	activity     map[string]*models.LessonActivity
	totalLessons int
	quizPassing  map[string]int
	seq          int
}

func newFakeProgress(totalLessons int, quizPassing map[string]int) *fakeProgress {
	if quizPassing == nil {
		quizPassing = map[string]int{}
	}
	return &fakeProgress{activity: map[string]*models.LessonActivity{}, totalLessons: totalLessons, quizPassing: quizPassing}
}

func (f *fakeProgress) Counts(ctx context.Context, exec sqlx.ExtContext, enrollmentID, courseID string) (models.ProgressCounts, error) {
	counts := models.ProgressCounts{TotalLessons: f.totalLessons, TotalQuizzes: len(f.quizPassing)}
	passed := map[string]bool{}
	for _, r := range f.records {
		if r.EnrollmentID != enrollmentID {
			continue
		}
		if r.LessonID != nil && r.Completed {
			counts.CompletedLessons++
		}
		if r.QuizID != nil && r.QuizScore != nil && *r.QuizScore >= float64(f.quizPassing[*r.QuizID]) {
			passed[*r.QuizID] = true
		}
	}
	counts.PassedQuizzes = len(passed)
	return counts, nil
}

func (f *fakeProgress) FindLessonProgress(ctx context.Context, exec sqlx.ExtContext, enrollmentID, lessonID string) (*models.Progress, error) {
	for _, r := range f.records {
		if r.EnrollmentID == enrollmentID && r.LessonID != nil && *r.LessonID == lessonID {
			cp := r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProgress) Create(ctx context.Context, exec sqlx.ExtContext, item *models.Progress) error {
	f.seq++
	item.ID = fmt.Sprintf("prog-%d", f.seq)
	f.records = append(f.records, *item)
	return nil
}

func (f *fakeProgress) MarkCompleted(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) error {
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].Completed = true
			if f.records[i].CompletionDate == nil {
				f.records[i].CompletionDate = &at
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeProgress) CountQuizAttempts(ctx context.Context, exec sqlx.ExtContext, enrollmentID, quizID string) (int, error) {
	n := 0
	for _, r := range f.records {
		if r.EnrollmentID == enrollmentID && r.QuizID != nil && *r.QuizID == quizID {
			n++
		}
	}
	return n, nil
}

func (f *fakeProgress) AttemptedQuizIDs(ctx context.Context, enrollmentID, courseID string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, r := range f.records {
		if r.EnrollmentID == enrollmentID && r.QuizID != nil {
			out[*r.QuizID] = true
		}
	}
	return out, nil
}

func (f *fakeProgress) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Progress, error) {
	var out []models.Progress
	for _, r := range f.records {
		if r.EnrollmentID == enrollmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProgress) UpsertActivity(ctx context.Context, item *models.LessonActivity) error {
	key := item.EnrollmentID + "/" + item.LessonID
	if existing, ok := f.activity[key]; ok {
		item.ID = existing.ID
		item.Completed = existing.Completed || item.Completed
	} else {
		f.seq++
		item.ID = fmt.Sprintf("act-%d", f.seq)
	}
	cp := *item
	f.activity[key] = &cp
	return nil
}

func (f *fakeProgress) ListActivity(ctx context.Context, enrollmentID string) ([]models.LessonActivity, error) {
	var out []models.LessonActivity
	for _, a := range f.activity {
		if a.EnrollmentID == enrollmentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type recordingCourseNotifier struct {
	reviewed []models.Course
	graded   []models.Submission
	payments []models.Payment
}

func (n *recordingCourseNotifier) CourseReviewed(ctx context.Context, course models.Course) {
	n.reviewed = append(n.reviewed, course)
}

func (n *recordingCourseNotifier) SubmissionGraded(ctx context.Context, sub models.Submission, maxScore int) {
	n.graded = append(n.graded, sub)
}

func (n *recordingCourseNotifier) PaymentConfirmed(ctx context.Context, student models.User, payment models.Payment) {
	n.payments = append(n.payments, payment)
}
