package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ushauri/core/meeting"
	"github.com/trezcool/ushauri/core/mentorship"
	"github.com/trezcool/ushauri/core/roadmap"
	"github.com/trezcool/ushauri/core/user"
	"github.com/trezcool/ushauri/services/email"
	"github.com/trezcool/ushauri/services/logger"
	"github.com/trezcool/ushauri/storage/database/dummy"
)

type testEnv struct {
	app Server

	usrRepo        user.Repository
	mentorshipRepo mentorship.Repository
	meetingRepo    meeting.Repository

	usrSvc user.Service
}

// fixedGenerator returns canned model output so roadmap tests are
// deterministic.
type fixedGenerator struct {
	text string
	err  error
}

func (g fixedGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}

func setup(t *testing.T, gen ...roadmap.Generator) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	mentorshipRepo := dummydb.NewMentorshipRepository(db)
	meetingRepo := dummydb.NewMeetingRepository(db)

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc, logger)

	var generator roadmap.Generator = fixedGenerator{err: context.Canceled}
	if len(gen) > 0 {
		generator = gen[0]
	}

	app := NewServer(&Options{
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		MentorshipSvc:  mentorship.NewService(mentorshipRepo, usrRepo),
		MeetingSvc:     meeting.NewService(meetingRepo, usrRepo, logger),
		RoadmapSvc:     roadmap.NewService(generator, logger),
	})

	return &testEnv{
		app:            app,
		usrRepo:        usrRepo,
		mentorshipRepo: mentorshipRepo,
		meetingRepo:    meetingRepo,
		usrSvc:         usrSvc,
	}
}

func (env *testEnv) createStudent(t *testing.T, name, email string) user.User {
	t.Helper()
	return env.createUser(t, user.User{
		Name:      name,
		Email:     email,
		Role:      user.RoleStudent,
		StudentID: "ST-" + uuid.New().String()[:8],
	})
}

func (env *testEnv) createMentor(t *testing.T, name, email string, rate, rating float64, expertise ...string) user.User {
	t.Helper()
	if expertise == nil {
		expertise = []string{"Software Engineering"}
	}
	return env.createUser(t, user.User{
		Name:           name,
		Email:          email,
		Role:           user.RoleMentor,
		Expertise:      expertise,
		Qualifications: []string{"PhD"},
		Institution:    "Test University",
		Description:    "Seasoned mentor",
		HourlyRate:     rate,
		Rating:         rating,
		ProfileImage:   user.DefaultProfileImage,
	})
}

func (env *testEnv) createUser(t *testing.T, usr user.User) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr.CreatedAt = now
	usr.UpdatedAt = now
	if err := usr.SetPassword("S3cretPwd!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

// decodeBody unmarshals the response body envelope into a generic map.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v; body = %s", err, rec.Body.String())
	}
	return body
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, wantCode int) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, wantCode, rec.Body.String())
	}
}
