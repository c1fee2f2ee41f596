package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"testing"

	"github.com/trezcool/ushauri/core/user"
	"github.com/trezcool/ushauri/services/email"
)

func Test_userApi_auth(t *testing.T) {
	env := setup(t)

	env.createUser(t, user.User{
		Name:  "Taken",
		Email: "taken@test.cd",
		Role:  user.RoleStudent,
	})

	signupBody := func(role user.Role, email string, extra string) []byte {
		base := fmt.Sprintf(`"name":"Jane Doe","email":%q,"password":"V3ryS3cret!","confirmPassword":"V3ryS3cret!","role":%q`, email, role)
		if extra != "" {
			base += "," + extra
		}
		return []byte("{" + base + "}")
	}

	mentorFields := `"expertise":["Go","Databases"],"qualifications":["MSc"],"institution":"MIT","description":"I teach Go","hourlyRate":50`

	tests := []httpTest{
		{name: "invalid auth type", path: "/v1/auth?type=lol", body: signupBody(user.RoleStudent, "jane@test.cd", ""), wantCode: http.StatusBadRequest},
		{name: "missing auth type", path: "/v1/auth", body: signupBody(user.RoleStudent, "jane@test.cd", ""), wantCode: http.StatusBadRequest},
		{name: "signup student ok", path: "/v1/auth?type=signup", body: signupBody(user.RoleStudent, "jane@test.cd", `"studentId":"ST-001"`), wantCode: http.StatusCreated},
		{name: "signup duplicate email", path: "/v1/auth?type=signup", body: signupBody(user.RoleStudent, "jane@test.cd", ""), wantCode: http.StatusConflict},
		{name: "signup existing email", path: "/v1/auth?type=signup", body: signupBody(user.RoleStudent, "taken@test.cd", ""), wantCode: http.StatusConflict},
		{name: "signup mentor ok", path: "/v1/auth?type=signup", body: signupBody(user.RoleMentor, "mentor@test.cd", mentorFields), wantCode: http.StatusCreated},
		{name: "signup mentor missing fields", path: "/v1/auth?type=signup", body: signupBody(user.RoleMentor, "mentor2@test.cd", ""), wantCode: http.StatusBadRequest},
		{name: "signup invalid role", path: "/v1/auth?type=signup", body: signupBody("wizard", "wiz@test.cd", ""), wantCode: http.StatusBadRequest},
		{name: "signup password mismatch", path: "/v1/auth?type=signup", body: []byte(`{"name":"X","email":"x@test.cd","password":"V3ryS3cret!","confirmPassword":"nope","role":"student"}`), wantCode: http.StatusBadRequest},
		{name: "login ok", path: "/v1/auth?type=login", body: []byte(`{"email":"jane@test.cd","password":"V3ryS3cret!"}`), wantCode: http.StatusOK},
		{name: "login wrong password", path: "/v1/auth?type=login", body: []byte(`{"email":"jane@test.cd","password":"wrong"}`), wantCode: http.StatusUnauthorized},
		{name: "login unknown email", path: "/v1/auth?type=login", body: []byte(`{"email":"ghost@test.cd","password":"V3ryS3cret!"}`), wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, tt.path, tt.body)
			env.app.ServeHTTP(rec, req)
			checkCode(t, rec, tt.wantCode)
		})
	}

	t.Run("signup returns user and token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth?type=signup", signupBody(user.RoleStudent, "token@test.cd", ""))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusCreated)

		body := decodeBody(t, rec)
		data, _ := body["data"].(map[string]interface{})
		if data["token"] == "" || data["token"] == nil {
			t.Error("no token in signup response")
		}
		usr, _ := data["user"].(map[string]interface{})
		if usr["email"] != "token@test.cd" || usr["role"] != "student" {
			t.Errorf("unexpected user payload: %v", usr)
		}
	})
}

func Test_userApi_profile(t *testing.T) {
	env := setup(t)

	student := env.createStudent(t, "Hero", "hero@test.cd")
	mentor := env.createMentor(t, "Sensei", "sensei@test.cd", 80, 4.5)
	studentToken := getToken(t, student)
	mentorToken := getToken(t, mentor)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/profile")
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusUnauthorized)
	})

	t.Run("token cookie works too", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/profile")
		req.AddCookie(&http.Cookie{Name: "token", Value: studentToken})
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)
	})

	t.Run("get own profile", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/profile", studentToken)
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)

		data, _ := decodeBody(t, rec)["data"].(map[string]interface{})
		if data["email"] != student.Email {
			t.Errorf("email = %v, want %v", data["email"], student.Email)
		}
	})

	t.Run("update name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", studentToken, []byte(`{"name":"Hero Renamed"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)

		data, _ := decodeBody(t, rec)["data"].(map[string]interface{})
		if data["name"] != "Hero Renamed" {
			t.Errorf("name = %v, want Hero Renamed", data["name"])
		}
	})

	t.Run("mentor fields ignored on student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", studentToken, []byte(`{"hourlyRate":500,"institution":"Fake U"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)

		data, _ := decodeBody(t, rec)["data"].(map[string]interface{})
		if data["institution"] != nil {
			t.Errorf("institution was applied to a student: %v", data["institution"])
		}
	})

	t.Run("mentor updates rate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", mentorToken, []byte(`{"hourlyRate":120}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)

		data, _ := decodeBody(t, rec)["data"].(map[string]interface{})
		if data["hourlyRate"] != float64(120) {
			t.Errorf("hourlyRate = %v, want 120", data["hourlyRate"])
		}
	})

	t.Run("password change requires current password", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", studentToken, []byte(`{"newPassword":"N3wS3cret!!"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusBadRequest)
	})

	t.Run("password change with wrong current password", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", studentToken, []byte(`{"currentPassword":"wrong","newPassword":"N3wS3cret!!"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusUnauthorized)
	})

	t.Run("email conflict", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profile", studentToken, []byte(`{"email":"sensei@test.cd"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusConflict)
	})
}

func Test_userApi_queryMentors(t *testing.T) {
	env := setup(t)

	env.createStudent(t, "Student", "student@test.cd")
	env.createMentor(t, "Ada", "ada@test.cd", 50, 4.9, "Machine Learning")
	env.createMentor(t, "Grace", "grace@test.cd", 90, 4.5, "Compilers", "Go")
	env.createMentor(t, "Linus", "linus@test.cd", 20, 3.9, "Operating Systems")

	path := func(search, expertise, sortBy string, page, limit int) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if expertise != "" {
			v.Add("expertise", expertise)
		}
		if sortBy != "" {
			v.Add("sortBy", sortBy)
		}
		if page > 0 {
			v.Add("page", strconv.Itoa(page))
		}
		if limit > 0 {
			v.Add("limit", strconv.Itoa(limit))
		}
		return "/v1/mentors?" + v.Encode()
	}

	query := func(t *testing.T, path string) ([]interface{}, map[string]interface{}) {
		req, rec := newRequest(http.MethodGet, path)
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)
		body := decodeBody(t, rec)
		data, _ := body["data"].([]interface{})
		return data, body
	}

	t.Run("students excluded", func(t *testing.T) {
		mentors, body := query(t, "/v1/mentors")
		if len(mentors) != 3 {
			t.Errorf("mentors = %d, want 3", len(mentors))
		}
		if body["total"] != float64(3) {
			t.Errorf("total = %v, want 3", body["total"])
		}
	})

	t.Run("default sort is rating desc", func(t *testing.T) {
		mentors, _ := query(t, "/v1/mentors")
		first, _ := mentors[0].(map[string]interface{})
		if first["name"] != "Ada" {
			t.Errorf("first = %v, want Ada", first["name"])
		}
	})

	t.Run("sort by rate asc", func(t *testing.T) {
		mentors, _ := query(t, path("", "", "rate", 0, 0))
		first, _ := mentors[0].(map[string]interface{})
		if first["name"] != "Linus" {
			t.Errorf("first = %v, want Linus", first["name"])
		}
	})

	t.Run("search by expertise tag", func(t *testing.T) {
		mentors, _ := query(t, path("compilers", "", "", 0, 0))
		if len(mentors) != 1 {
			t.Fatalf("mentors = %d, want 1", len(mentors))
		}
		first, _ := mentors[0].(map[string]interface{})
		if first["name"] != "Grace" {
			t.Errorf("first = %v, want Grace", first["name"])
		}
	})

	t.Run("expertise=all is a no-op", func(t *testing.T) {
		mentors, _ := query(t, path("", "all", "", 0, 0))
		if len(mentors) != 3 {
			t.Errorf("mentors = %d, want 3", len(mentors))
		}
	})

	t.Run("pagination", func(t *testing.T) {
		mentors, body := query(t, path("", "", "", 2, 2))
		if len(mentors) != 1 {
			t.Errorf("mentors = %d, want 1", len(mentors))
		}
		if body["totalPages"] != float64(2) {
			t.Errorf("totalPages = %v, want 2", body["totalPages"])
		}
	})

	t.Run("mentor by ID", func(t *testing.T) {
		mentors, _ := query(t, "/v1/mentors")
		first, _ := mentors[0].(map[string]interface{})

		req, rec := newRequest(http.MethodPost, "/v1/mentors", marshallObj(t, map[string]string{"id": first["id"].(string)}))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)
	})

	t.Run("mentor by unknown ID", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/mentors", []byte(`{"id":"00000000-0000-4000-8000-000000000000"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusNotFound)
	})
}

var tokenRegex = regexp.MustCompile(`/password-reset/(?P<uid>[\w-]+)/(?P<token>[\w-]+)`)

func Test_userApi_passwordReset(t *testing.T) {
	env := setup(t)
	student := env.createStudent(t, "Forgetful", "forgetful@test.cd")

	t.Run("request is always a 200", func(t *testing.T) {
		for _, email := range []string{student.Email, "ghost@test.cd"} {
			req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset", marshallObj(t, map[string]string{"email": email}))
			env.app.ServeHTTP(rec, req)
			checkCode(t, rec, http.StatusOK)
		}
	})

	t.Run("confirm with mailed token", func(t *testing.T) {
		var uid, token string
		for _, msg := range emailsvc.SentMessages {
			if m := tokenRegex.FindStringSubmatch(msg.TextContent); m != nil {
				uid, token = m[1], m[2]
			}
		}
		if token == "" {
			t.Fatal("no password reset mail was sent")
		}

		body := marshallObj(t, map[string]string{
			"uid":             uid,
			"token":           token,
			"password":        "Br4ndN3wPwd!",
			"confirmPassword": "Br4ndN3wPwd!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset-confirm", body)
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)

		// old password no longer works
		req, rec = newRequest(http.MethodPost, "/v1/auth?type=login", []byte(`{"email":"forgetful@test.cd","password":"S3cretPwd!"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusUnauthorized)

		// new one does
		req, rec = newRequest(http.MethodPost, "/v1/auth?type=login", []byte(`{"email":"forgetful@test.cd","password":"Br4ndN3wPwd!"}`))
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusOK)
	})

	t.Run("confirm with garbage token", func(t *testing.T) {
		body := marshallObj(t, map[string]string{
			"uid":             "bm9wZQ",
			"token":           "HE4TS-sigsig-sig",
			"password":        "Br4ndN3wPwd!",
			"confirmPassword": "Br4ndN3wPwd!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/auth/password-reset-confirm", body)
		env.app.ServeHTTP(rec, req)
		checkCode(t, rec, http.StatusBadRequest)
	})
}
