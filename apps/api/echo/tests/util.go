package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/malipo/apps/api/echo"
	"github.com/trezcool/malipo/core/billing"
	"github.com/trezcool/malipo/core/student"
	"github.com/trezcool/malipo/core/user"
	logsvc "github.com/trezcool/malipo/services/logger"
	metricsvc "github.com/trezcool/malipo/services/metrics"
	sqlxrepos "github.com/trezcool/malipo/storage/database/sqlx"
	"github.com/trezcool/malipo/tests"
)

var (
	conf = testutil.NewConfig()

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

type testApp struct {
	*Server
	usrRepo  user.Repository
	students student.Repository
	invoices billing.InvoiceRepository
	payments billing.PaymentRepository
	fees     billing.FeeRepository
}

func setup(t *testing.T) testApp {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	app := testApp{
		usrRepo:  sqlxrepos.NewUserRepository(db),
		students: sqlxrepos.NewStudentRepository(db),
		invoices: sqlxrepos.NewInvoiceRepository(db),
		payments: sqlxrepos.NewPaymentRepository(db),
		fees:     sqlxrepos.NewFeeRepository(db),
	}

	// set up services
	validate, translator := testutil.NewValidator()
	usrSvc := user.NewService(app.usrRepo)
	billingSvc := billing.NewService(conf, db, app.invoices, app.payments, app.fees, app.students, validate)

	// set up server
	app.Server = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logsvc.NewConsoleOnlyLogger(logsvc.NewConsoleLogger(io.Discard, logsvc.ComponentAPI, false)),
		DB:         db,
		UserSvc:    usrSvc,
		BillingSvc: billingSvc,
		Metrics:    metricsvc.New("malipo_test"),
		Validate:   validate,
		Translator: translator,
	})
	t.Cleanup(func() {
		_ = app.Server.Close()
	})
	return app
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
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
	claims := GetUserClaims(usr, conf)
	token, err := GenerateToken(claims, conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// unmarchall decodes the recorded response body into v.
func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

// checkCodeAndData only checks the code when no data is wanted.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; data %v", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
