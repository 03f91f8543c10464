package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/samandr77/crm/internal/api"
	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/internal/mocks"
	"github.com/samandr77/crm/internal/repository"
	"github.com/samandr77/crm/internal/service"
	"github.com/samandr77/crm/pkg/reference"
	"github.com/samandr77/crm/pkg/security"
)

const (
	adminEmail    = "admin@company.com"
	adminPassword = "admin123"
)

type testAPI struct {
	handler http.Handler
	mailer  *mocks.MockMailer
	storage *mocks.MockStorage
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()

	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockMailer(ctrl)
	calendar := mocks.NewMockCalendar(ctrl)
	storage := mocks.NewMockStorage(ctrl)

	ref, err := reference.Load()
	require.NoError(t, err)

	svc := service.New(repository.SetupTestRepository(t), security.NewBcryptHasher(bcrypt.MinCost),
		mailer, calendar, storage, ref, service.Options{DeliveryTimeout: time.Second, MaxFailedLogins: 3})

	_, err = svc.Bootstrap(context.Background(), entity.NewUser{Email: adminEmail, Password: adminPassword, Name: "Admin"})
	require.NoError(t, err)

	tokens := security.NewTokenManager("test-secret", time.Hour)

	return testAPI{
		handler: api.NewRouter(api.NewHandler(svc, tokens), api.NewMiddleware(tokens, svc, []string{"*"})),
		mailer:  mailer,
		storage: storage,
	}
}

func (a testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec
}

func (a testAPI) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp api.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	return resp.Token
}

func (a testAPI) createEmployee(t *testing.T, adminToken, email string) entity.User {
	t.Helper()

	a.mailer.EXPECT().Send(gomock.Any(), email, gomock.Any(), gomock.Any(), false).Return(nil)

	rec := a.do(t, http.MethodPost, "/api/users", adminToken, api.CreateUserRequest{
		Email:    email,
		Password: "secret1",
		Role:     entity.RoleEmployee,
		Name:     "Employee",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.CreateUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Delivery.Sent)

	return resp.User
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[api.HealthResponse](t, rec).Status)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{
			name: "valid credentials",
			body: api.LoginRequest{Email: adminEmail, Password: adminPassword},
			want: http.StatusOK,
		},
		{
			name: "wrong password",
			body: api.LoginRequest{Email: adminEmail, Password: "nope"},
			want: http.StatusUnauthorized,
		},
		{
			name: "unknown email",
			body: api.LoginRequest{Email: "ghost@company.com", Password: adminPassword},
			want: http.StatusUnauthorized,
		},
		{
			name: "invalid json",
			body: "not an object",
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := a.do(t, http.MethodPost, "/api/auth/login", "", tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_LoginResponsesDoNotLeakAccounts(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	wrongPassword := a.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: adminEmail, Password: "nope"})
	unknownEmail := a.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: "ghost@company.com", Password: "nope"})

	require.Equal(t, wrongPassword.Code, unknownEmail.Code)
	require.Equal(t, decode[api.ErrorResponse](t, wrongPassword), decode[api.ErrorResponse](t, unknownEmail))
}

func TestHandler_LoginThrottled(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)

	for i := 0; i < 3; i++ {
		rec := a.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: adminEmail, Password: "nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := a.do(t, http.MethodPost, "/api/auth/login", "", api.LoginRequest{Email: adminEmail, Password: adminPassword})
	require.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())
	require.Equal(t, "Too many attempts", decode[api.ErrorResponse](t, rec).Message)
}

func TestHandler_BearerAuth(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	token := a.login(t, adminEmail, adminPassword)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "valid token", token: token, want: http.StatusOK},
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "garbage token", token: "abc.def.ghi", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := a.do(t, http.MethodGet, "/api/auth/me", tt.token, nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_AdminOnlyRoutes(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	adminToken := a.login(t, adminEmail, adminPassword)
	a.createEmployee(t, adminToken, "emp@company.com")
	empToken := a.login(t, "emp@company.com", "secret1")

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/users"},
		{method: http.MethodGet, path: "/api/customers/pending"},
		{method: http.MethodGet, path: "/api/meetings/pending"},
		{method: http.MethodPost, path: "/api/customers/VNDC000001/approve"},
		{method: http.MethodDelete, path: "/api/customers/VNDC000001"},
		{method: http.MethodPost, path: "/api/notifications"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			rec := a.do(t, tt.method, tt.path, empToken, nil)
			require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_CustomerApproval(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	adminToken := a.login(t, adminEmail, adminPassword)
	employee := a.createEmployee(t, adminToken, "emp@company.com")
	empToken := a.login(t, "emp@company.com", "secret1")

	rec := a.do(t, http.MethodPost, "/api/customers", empToken, api.CreateCustomerRequest{
		CompanyName:    "Acme",
		Country:        "Vietnam",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Alice",
		ContactEmail1:  "alice@acme.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[entity.Customer](t, rec)
	require.Equal(t, "VNDC000001", created.ID)
	require.False(t, created.Approved)
	require.Equal(t, &employee.ID, created.AssignedTo)

	// pending customers are hidden from everyone's list
	rec = a.do(t, http.MethodGet, "/api/customers", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[[]entity.CustomerView](t, rec))

	rec = a.do(t, http.MethodGet, "/api/customers/VNDC000001", empToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/notifications/unread", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, decode[api.UnreadResponse](t, rec).Unread)

	rec = a.do(t, http.MethodGet, "/api/customers/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]entity.CustomerView](t, rec), 1)

	a.mailer.EXPECT().Send(gomock.Any(), employee.Email, gomock.Any(), gomock.Any(), false).Return(nil)

	rec = a.do(t, http.MethodPost, "/api/customers/VNDC000001/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	approved := decode[api.ApproveCustomerResponse](t, rec)
	require.True(t, approved.Customer.Approved)
	require.True(t, approved.Delivery.Sent)

	rec = a.do(t, http.MethodPost, "/api/customers/VNDC000001/approve", adminToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// the approval request is read now, admins still see the notice sent to the creator
	rec = a.do(t, http.MethodGet, "/api/notifications", adminToken, nil)
	for _, n := range decode[[]entity.Notification](t, rec) {
		require.Equal(t, n.Type == entity.NotificationCustomerApproval, n.Read, n.Type)
	}

	rec = a.do(t, http.MethodGet, "/api/customers", empToken, nil)
	require.Len(t, decode[[]entity.CustomerView](t, rec), 1)

	rec = a.do(t, http.MethodGet, "/api/notifications", empToken, nil)
	notes := decode[[]entity.Notification](t, rec)
	require.Len(t, notes, 1)
	require.Equal(t, entity.NotificationCustomerApproved, notes[0].Type)
}

func TestHandler_CustomerCascadeDelete(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	adminToken := a.login(t, adminEmail, adminPassword)

	rec := a.do(t, http.MethodPost, "/api/customers", adminToken, api.CreateCustomerRequest{
		CompanyName:    "Globex",
		Country:        "Singapore",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Hank",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	customer := decode[entity.Customer](t, rec)
	require.True(t, customer.Approved)

	rec = a.do(t, http.MethodPost, "/api/services", adminToken, api.CreateServiceRequest{
		CustomerID: customer.ID,
		Type:       "Consulting",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	svc := decode[entity.Service](t, rec)

	rec = a.do(t, http.MethodPost, "/api/tasks", adminToken, api.CreateTaskRequest{
		ServiceID: svc.ID,
		Name:      "Kick-off",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/payments", adminToken, map[string]any{
		"serviceId":      svc.ID,
		"currency":       "usd",
		"originalAmount": "100",
		"exchangeRate":   "25000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	payment := decode[entity.PaymentView](t, rec)
	require.Equal(t, "USD", payment.Currency)
	require.Equal(t, "2500000", payment.ConvertedAmount.String())

	rec = a.do(t, http.MethodDelete, "/api/customers/"+customer.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[entity.CascadeResult](t, rec)
	require.Equal(t, int64(1), res.Customers)
	require.Equal(t, int64(1), res.Services)
	require.Equal(t, int64(1), res.Tasks)
	require.Equal(t, int64(1), res.Payments)

	rec = a.do(t, http.MethodGet, "/api/services", adminToken, nil)
	require.Empty(t, decode[[]entity.ServiceView](t, rec))

	rec = a.do(t, http.MethodDelete, "/api/customers/"+customer.ID, adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ValidationErrors(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	adminToken := a.login(t, adminEmail, adminPassword)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{
			name:   "customer without contact",
			method: http.MethodPost,
			path:   "/api/customers",
			body:   api.CreateCustomerRequest{CompanyName: "Acme", Category: entity.CategoryCompany},
			want:   http.StatusBadRequest,
		},
		{
			name:   "malformed task id",
			method: http.MethodPatch,
			path:   "/api/tasks/not-a-uuid",
			body:   api.UpdateTaskRequest{},
			want:   http.StatusBadRequest,
		},
		{
			name:   "malformed service filter",
			method: http.MethodGet,
			path:   "/api/payments?serviceId=42",
			want:   http.StatusBadRequest,
		},
		{
			name:   "duplicate email",
			method: http.MethodPost,
			path:   "/api/users",
			body:   api.CreateUserRequest{Email: adminEmail, Password: "secret1", Role: entity.RoleAdmin, Name: "Twin"},
			want:   http.StatusConflict,
		},
		{
			name:   "unknown user",
			method: http.MethodDelete,
			path:   "/api/users/00000000-0000-0000-0000-000000000000",
			want:   http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := a.do(t, tt.method, tt.path, adminToken, tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_Notify(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	adminToken := a.login(t, adminEmail, adminPassword)
	employee := a.createEmployee(t, adminToken, "emp@company.com")
	empToken := a.login(t, "emp@company.com", "secret1")

	rec := a.do(t, http.MethodPost, "/api/notifications", adminToken, api.NotifyRequest{
		UserID:  &employee.ID,
		Message: "Please update the Acme contract",
		Type:    "reminder",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/notifications/unread", empToken, nil)
	require.Equal(t, 1, decode[api.UnreadResponse](t, rec).Unread)

	rec = a.do(t, http.MethodPost, "/api/notifications/read-all", empToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), decode[api.MarkAllReadResponse](t, rec).Updated)

	rec = a.do(t, http.MethodGet, "/api/notifications/unread", empToken, nil)
	require.Equal(t, 0, decode[api.UnreadResponse](t, rec).Unread)

	rec = a.do(t, http.MethodPost, "/api/notifications", adminToken, api.NotifyRequest{Type: "reminder"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Dashboard(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	adminToken := a.login(t, adminEmail, adminPassword)

	rec := a.do(t, http.MethodGet, "/api/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	d := decode[entity.Dashboard](t, rec)
	require.Zero(t, d.Customers)
	require.Zero(t, d.PendingCustomers)
}

func TestHandler_DocumentFile(t *testing.T) {
	t.Parallel()

	a := newTestAPI(t)
	adminToken := a.login(t, adminEmail, adminPassword)

	rec := a.do(t, http.MethodPost, "/api/customers", adminToken, api.CreateCustomerRequest{
		CompanyName:    "Initech",
		Country:        "Hong Kong",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Bill",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	customer := decode[entity.Customer](t, rec)

	rec = a.do(t, http.MethodPost, "/api/documents", adminToken, api.CreateDocumentRequest{
		CustomerID: customer.ID,
		Type:       "Contract",
		Name:       "contract",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	doc := decode[entity.Document](t, rec)
	path := "/api/documents/" + doc.ID.String() + "/file"

	rec = a.do(t, http.MethodGet, path, adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	var key string

	a.storage.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), int64(4), "application/pdf").
		DoAndReturn(func(_ context.Context, k string, body io.ReadSeeker, _ int64, _ string) error {
			b, err := io.ReadAll(body)
			require.NoError(t, err)
			require.Equal(t, "%PDF", string(b))

			key = k

			return nil
		})

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="contract.pdf"`},
		"Content-Type":        {"application/pdf"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	f := decode[entity.DocumentFile](t, rec)
	require.Equal(t, "contract.pdf", f.Name)
	require.Equal(t, int64(4), f.Size)

	expiresAt := time.Date(2026, 10, 17, 12, 15, 0, 0, time.UTC)
	a.storage.EXPECT().URL(gomock.Any(), key).Return("https://files.test/contract.pdf", expiresAt, nil)

	rec = a.do(t, http.MethodGet, path, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	link := decode[api.DocumentFileResponse](t, rec)
	require.Equal(t, "https://files.test/contract.pdf", link.URL)
	require.True(t, expiresAt.Equal(link.ExpiresAt))

	rec = a.do(t, http.MethodPost, path, adminToken, map[string]string{"file": "not multipart"})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}
