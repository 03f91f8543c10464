package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/samandr77/crm/internal/entity"
	"github.com/samandr77/crm/internal/mocks"
	"github.com/samandr77/crm/internal/repository"
	"github.com/samandr77/crm/internal/service"
	"github.com/samandr77/crm/pkg/metrics"
	"github.com/samandr77/crm/pkg/reference"
	"github.com/samandr77/crm/pkg/security"
)

const (
	adminEmail    = "admin@company.com"
	adminPassword = "admin123"
)

type testService struct {
	svc      *service.Service
	repo     *repository.Repository
	mailer   *mocks.MockMailer
	calendar *mocks.MockCalendar
	storage  *mocks.MockStorage
	admin    entity.Caller
}

func newTestService(t *testing.T, opts service.Options) testService {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := repository.SetupTestRepository(t)
	mailer := mocks.NewMockMailer(ctrl)
	calendar := mocks.NewMockCalendar(ctrl)
	storage := mocks.NewMockStorage(ctrl)

	ref, err := reference.Load()
	require.NoError(t, err)

	svc := service.New(repo, security.NewBcryptHasher(bcrypt.MinCost), mailer, calendar, storage, ref, opts)

	created, err := svc.Bootstrap(context.Background(), entity.NewUser{
		Email:    adminEmail,
		Password: adminPassword,
		Name:     "Administrator",
	})
	require.NoError(t, err)
	require.True(t, created)

	admin, err := repo.UserByEmail(context.Background(), adminEmail)
	require.NoError(t, err)

	return testService{
		svc:      svc,
		repo:     repo,
		mailer:   mailer,
		calendar: calendar,
		storage:  storage,
		admin:    entity.CallerFromUser(admin),
	}
}

func (ts testService) employee(t *testing.T, email string) entity.Caller {
	t.Helper()

	ts.mailer.EXPECT().Send(gomock.Any(), email, gomock.Any(), gomock.Any(), false).Return(nil)

	u, delivery, err := ts.svc.CreateUser(context.Background(), ts.admin, entity.NewUser{
		Email:    email,
		Password: "secret1",
		Role:     entity.RoleEmployee,
		Name:     "Employee " + email,
	})
	require.NoError(t, err)
	require.True(t, delivery.Sent)

	return entity.CallerFromUser(u)
}

func customerIDs(views []entity.CustomerView) []string {
	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}

	return ids
}

func TestService_ApprovalScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{})
	employee := ts.employee(t, "employee@company.com")

	acme, err := ts.svc.CreateCustomer(ctx, ts.admin, entity.Customer{
		CompanyName:   "Acme",
		Country:       "Vietnam",
		Category:      entity.CategoryCompany,
		ContactEmail1: "ceo@acme.test",
	})
	require.NoError(t, err)
	require.Equal(t, "VNDC000001", acme.ID)
	require.True(t, acme.Approved)

	beta, err := ts.svc.CreateCustomer(ctx, employee, entity.Customer{
		CompanyName:    "Beta",
		Country:        "Vietnam",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Bob",
	})
	require.NoError(t, err)
	require.Equal(t, "VNDC000002", beta.ID)
	require.False(t, beta.Approved)
	require.Equal(t, employee.UserRef(), beta.AssignedTo)

	notes, err := ts.svc.Notifications(ctx, ts.admin)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, entity.NotificationCustomerApproval, notes[0].Type)
	require.Nil(t, notes[0].UserID)
	require.Equal(t, beta.ID, *notes[0].RelatedID)

	visible, err := ts.svc.Customers(ctx, employee, entity.CustomerFilter{})
	require.NoError(t, err)
	require.Empty(t, visible)

	pending, err := ts.svc.PendingCustomers(ctx, ts.admin)
	require.NoError(t, err)
	require.Equal(t, []string{beta.ID}, customerIDs(pending))

	ts.mailer.EXPECT().Send(gomock.Any(), employee.Email, "Customer approved", gomock.Any(), false).
		Return(errors.New("smtp is down"))

	approved, delivery, err := ts.svc.ApproveCustomer(ctx, ts.admin, beta.ID)
	require.NoError(t, err)
	require.True(t, approved.Approved)
	require.False(t, delivery.Sent)
	require.Equal(t, "smtp is down", delivery.Detail)

	visible, err = ts.svc.Customers(ctx, employee, entity.CustomerFilter{})
	require.NoError(t, err)
	require.Equal(t, []string{beta.ID}, customerIDs(visible))

	unread, err := ts.svc.UnreadNotifications(ctx, employee)
	require.NoError(t, err)
	require.Equal(t, 1, unread)

	n, err := ts.svc.MarkAllNotificationsRead(ctx, employee)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	unread, err = ts.svc.UnreadNotifications(ctx, employee)
	require.NoError(t, err)
	require.Zero(t, unread)

	_, _, err = ts.svc.ApproveCustomer(ctx, ts.admin, beta.ID)
	require.ErrorIs(t, err, entity.ErrConflict)
}

func TestService_NotificationTimestamps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	ts := newTestService(t, service.Options{Now: func() time.Time { return now }})
	employee := ts.employee(t, "clock@company.com")

	submittedAt := now

	c, err := ts.svc.CreateCustomer(ctx, employee, entity.Customer{
		CompanyName:    "Clockwork",
		Country:        "Singapore",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Mei",
	})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	approvedAt := now

	ts.mailer.EXPECT().Send(gomock.Any(), employee.Email, gomock.Any(), gomock.Any(), false).Return(nil)

	_, _, err = ts.svc.ApproveCustomer(ctx, ts.admin, c.ID)
	require.NoError(t, err)

	now = now.Add(time.Hour)

	direct, err := ts.svc.Notify(ctx, employee.UserRef(), "call the client", "reminder", nil)
	require.NoError(t, err)
	require.True(t, now.Equal(direct.CreatedAt), direct.CreatedAt)

	notes, err := ts.svc.Notifications(ctx, ts.admin)
	require.NoError(t, err)

	got := make(map[string]time.Time, len(notes))
	for _, n := range notes {
		got[n.Type] = n.CreatedAt
	}

	require.True(t, submittedAt.Equal(got[entity.NotificationCustomerApproval]), got)
	require.True(t, approvedAt.Equal(got[entity.NotificationCustomerApproved]), got)
	require.True(t, now.Equal(got["reminder"]), got)
}

func TestService_ApproveCustomerMailTimeout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{DeliveryTimeout: 50 * time.Millisecond})
	employee := ts.employee(t, "slow@company.com")

	c, err := ts.svc.CreateCustomer(ctx, employee, entity.Customer{
		CompanyName:    "Slow Mail",
		Country:        "Japan",
		Category:       entity.CategoryIndividual,
		ContactPerson1: "Ken",
	})
	require.NoError(t, err)
	require.Equal(t, "JPYI000001", c.ID)

	ts.mailer.EXPECT().Send(gomock.Any(), employee.Email, gomock.Any(), gomock.Any(), false).
		DoAndReturn(func(ctx context.Context, _, _, _ string, _ bool) error {
			<-ctx.Done()
			return ctx.Err()
		})

	_, delivery, err := ts.svc.ApproveCustomer(ctx, ts.admin, c.ID)
	require.NoError(t, err)
	require.False(t, delivery.Sent)

	got, err := ts.svc.Customer(ctx, employee, c.ID)
	require.NoError(t, err)
	require.True(t, got.Approved)
}

func TestService_CreateCustomerValidation(t *testing.T) {
	t.Parallel()

	ts := newTestService(t, service.Options{})

	tests := []struct {
		name     string
		customer entity.Customer
		errFn    require.ErrorAssertionFunc
	}{
		{
			name:     "valid",
			customer: entity.Customer{CompanyName: "Gamma", Category: entity.CategoryHousehold, ContactPerson1: "Ann"},
			errFn:    require.NoError,
		},
		{
			name:     "missing company name",
			customer: entity.Customer{CompanyName: "  ", Category: entity.CategoryCompany, ContactPerson1: "Ann"},
			errFn:    errorIs(entity.ErrValidation),
		},
		{
			name:     "missing contact",
			customer: entity.Customer{CompanyName: "Gamma", Category: entity.CategoryCompany},
			errFn:    errorIs(entity.ErrValidation),
		},
		{
			name:     "unknown category",
			customer: entity.Customer{CompanyName: "Gamma", Category: "Alien", ContactPerson1: "Ann"},
			errFn:    errorIs(entity.ErrValidation),
		},
		{
			name:     "bad contact e-mail",
			customer: entity.Customer{CompanyName: "Gamma", Category: entity.CategoryCompany, ContactEmail1: "not-an-email"},
			errFn:    errorIs(entity.ErrEmailInvalidFormat),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.svc.CreateCustomer(context.Background(), ts.admin, tt.customer)
			tt.errFn(t, err)
		})
	}
}

func errorIs(target error) require.ErrorAssertionFunc {
	return func(t require.TestingT, err error, _ ...any) {
		require.ErrorIs(t, err, target)
	}
}

func TestService_Authenticate(t *testing.T) {
	t.Parallel()

	ts := newTestService(t, service.Options{})

	u, err := ts.svc.Authenticate(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	require.Equal(t, ts.admin.ID, u.ID)

	_, wrongSecret := ts.svc.Authenticate(context.Background(), adminEmail, "wrong")
	_, unknownUser := ts.svc.Authenticate(context.Background(), "nobody@company.com", adminPassword)

	require.ErrorIs(t, wrongSecret, entity.ErrUnauthorized)
	require.ErrorIs(t, unknownUser, entity.ErrUnauthorized)
	require.Equal(t, wrongSecret.Error(), unknownUser.Error())
}

func TestService_AuthenticateUnknownEmailHashes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ctrl := gomock.NewController(t)
	hasher := mocks.NewMockHasher(ctrl)
	repo := repository.SetupTestRepository(t)

	ref, err := reference.Load()
	require.NoError(t, err)

	svc := service.New(repo, hasher, nil, nil, nil, ref, service.Options{})

	err = repo.CreateUser(ctx, entity.User{
		ID:           uuid.Must(uuid.NewV4()),
		Email:        "known@company.com",
		PasswordHash: "stored-hash",
		Role:         entity.RoleEmployee,
		Name:         "Known",
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	gomock.InOrder(
		hasher.EXPECT().Verify("wrong", "stored-hash").Return(false),
		hasher.EXPECT().Hash(gomock.Any()).Return("dummy-hash", nil),
		hasher.EXPECT().Verify("wrong", "dummy-hash").Return(false),
		hasher.EXPECT().Verify("other", "dummy-hash").Return(false),
	)

	_, wrongSecret := svc.Authenticate(ctx, "known@company.com", "wrong")
	require.ErrorIs(t, wrongSecret, entity.ErrUnauthorized)

	for _, secret := range []string{"wrong", "other"} {
		_, err = svc.Authenticate(ctx, "nobody@company.com", secret)
		require.ErrorIs(t, err, entity.ErrUnauthorized)
		require.Equal(t, wrongSecret.Error(), err.Error())
	}
}

func TestService_AuthenticateThrottle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	ts := newTestService(t, service.Options{
		MaxFailedLogins: 2,
		LoginWindow:     15 * time.Minute,
		Now:             func() time.Time { return now },
	})

	for i := 0; i < 2; i++ {
		_, err := ts.svc.Authenticate(ctx, adminEmail, "wrong")
		require.ErrorIs(t, err, entity.ErrUnauthorized)
		require.NotErrorIs(t, err, entity.ErrTooManyAttempts)
	}

	_, err := ts.svc.Authenticate(ctx, adminEmail, adminPassword)
	require.ErrorIs(t, err, entity.ErrTooManyAttempts)
	require.ErrorIs(t, err, entity.ErrUnauthorized)

	for i := 0; i < 2; i++ {
		_, err = ts.svc.Authenticate(ctx, "nobody@company.com", "wrong")
		require.NotErrorIs(t, err, entity.ErrTooManyAttempts)
	}

	_, err = ts.svc.Authenticate(ctx, "nobody@company.com", "wrong")
	require.ErrorIs(t, err, entity.ErrTooManyAttempts)

	now = now.Add(16 * time.Minute)

	u, err := ts.svc.Authenticate(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.Equal(t, ts.admin.ID, u.ID)

	require.NoError(t, ts.svc.CleanLoginAttempts(ctx))

	failed, err := ts.repo.FailedLogins(ctx, adminEmail, time.Time{})
	require.NoError(t, err)
	require.Zero(t, failed)
}

func TestService_CreateUser(t *testing.T) {
	t.Parallel()

	ts := newTestService(t, service.Options{})
	employee := ts.employee(t, "first@company.com")

	tests := []struct {
		name   string
		caller entity.Caller
		user   entity.NewUser
		errFn  require.ErrorAssertionFunc
	}{
		{
			name:   "duplicate e-mail",
			caller: ts.admin,
			user:   entity.NewUser{Email: "first@company.com", Password: "secret1", Role: entity.RoleEmployee, Name: "Dup"},
			errFn:  errorIs(entity.ErrDuplicateEmail),
		},
		{
			name:   "not an admin",
			caller: employee,
			user:   entity.NewUser{Email: "second@company.com", Password: "secret1", Role: entity.RoleEmployee, Name: "Two"},
			errFn:  errorIs(entity.ErrForbidden),
		},
		{
			name:   "short password",
			caller: ts.admin,
			user:   entity.NewUser{Email: "second@company.com", Password: "123", Role: entity.RoleEmployee, Name: "Two"},
			errFn:  errorIs(entity.ErrPasswordTooShort),
		},
		{
			name:   "unknown role",
			caller: ts.admin,
			user:   entity.NewUser{Email: "second@company.com", Password: "secret1", Role: "root", Name: "Two"},
			errFn:  errorIs(entity.ErrInvalidRole),
		},
		{
			name:   "bad e-mail",
			caller: ts.admin,
			user:   entity.NewUser{Email: "second", Password: "secret1", Role: entity.RoleEmployee, Name: "Two"},
			errFn:  errorIs(entity.ErrValidation),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ts.svc.CreateUser(context.Background(), tt.caller, tt.user)
			tt.errFn(t, err)
		})
	}
}

func TestService_CreateUserHashFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	hasher := mocks.NewMockHasher(ctrl)
	repo := repository.SetupTestRepository(t)

	ref, err := reference.Load()
	require.NoError(t, err)

	svc := service.New(repo, hasher, nil, nil, nil, ref, service.Options{})

	hasher.EXPECT().Hash("secret1").Return("", errors.New("entropy exhausted"))

	_, _, err = svc.CreateUser(context.Background(), entity.SystemCaller(), entity.NewUser{
		Email:    "user@company.com",
		Password: "secret1",
		Role:     entity.RoleEmployee,
		Name:     "User",
	})
	require.ErrorIs(t, err, entity.ErrStorage)

	users, err := repo.Users(context.Background())
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestService_DeleteUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{})
	employee := ts.employee(t, "leaving@company.com")

	c, err := ts.svc.CreateCustomer(ctx, ts.admin, entity.Customer{
		CompanyName:    "Orphan",
		Country:        "Singapore",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Lee",
		AssignedTo:     employee.UserRef(),
	})
	require.NoError(t, err)

	_, err = ts.svc.DeleteUser(ctx, employee, ts.admin.ID)
	require.ErrorIs(t, err, entity.ErrForbidden)

	_, err = ts.svc.DeleteUser(ctx, ts.admin, ts.admin.ID)
	require.ErrorIs(t, err, entity.ErrDeleteSelf)

	_, err = ts.svc.DeleteUser(ctx, entity.SystemCaller(), ts.admin.ID)
	require.ErrorIs(t, err, entity.ErrLastAdmin)

	users, err := ts.svc.Users(ctx, ts.admin)
	require.NoError(t, err)
	require.Len(t, users, 2)

	res, err := ts.svc.DeleteUser(ctx, ts.admin, employee.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.UnassignedCustomers)

	got, err := ts.svc.Customer(ctx, ts.admin, c.ID)
	require.NoError(t, err)
	require.Nil(t, got.AssignedTo)
}

func TestService_Bootstrap(t *testing.T) {
	t.Parallel()

	ts := newTestService(t, service.Options{})

	created, err := ts.svc.Bootstrap(context.Background(), entity.NewUser{
		Email:    "other@company.com",
		Password: adminPassword,
		Name:     "Other",
	})
	require.NoError(t, err)
	require.False(t, created)

	groups, err := ts.svc.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)

	n, err := ts.repo.CountAdmins(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestService_CascadeDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{})

	c, err := ts.svc.CreateCustomer(ctx, ts.admin, entity.Customer{
		CompanyName:    "Cascade",
		Country:        "Vietnam",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Mai",
	})
	require.NoError(t, err)

	svc, err := ts.svc.CreateService(ctx, ts.admin, entity.Service{CustomerID: c.ID, Type: "Incorporation"})
	require.NoError(t, err)

	_, err = ts.svc.CreateTask(ctx, ts.admin, entity.WorkTask{ServiceID: svc.ID, Name: "Register"})
	require.NoError(t, err)

	payment, err := ts.svc.CreatePayment(ctx, ts.admin, entity.Payment{
		ServiceID:      svc.ID,
		Currency:       "usd",
		OriginalAmount: decimal.NewFromInt(100),
		ExchangeRate:   decimal.NewFromInt(25000),
	})
	require.NoError(t, err)
	require.Equal(t, "USD", payment.Currency)
	require.True(t, decimal.NewFromInt(2500000).Equal(payment.ConvertedAmount))

	_, err = ts.svc.CreateDocument(ctx, ts.admin, entity.Document{CustomerID: c.ID, ServiceID: &svc.ID, Type: "Contract", Name: "contract.pdf"})
	require.NoError(t, err)

	_, err = ts.svc.CreateDocument(ctx, ts.admin, entity.Document{CustomerID: c.ID, Type: "Poem", Name: "poem.txt"})
	require.ErrorIs(t, err, entity.ErrValidation)

	res, err := ts.svc.DeleteCustomer(ctx, ts.admin, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Tasks)
	require.Equal(t, int64(1), res.Payments)
	require.Equal(t, int64(1), res.Documents)
	require.Equal(t, int64(1), res.Services)
	require.Equal(t, int64(1), res.Customers)

	tasks, err := ts.svc.Tasks(ctx, ts.admin, nil)
	require.NoError(t, err)
	require.Empty(t, tasks)

	payments, err := ts.svc.Payments(ctx, ts.admin, nil)
	require.NoError(t, err)
	require.Empty(t, payments)

	documents, err := ts.svc.Documents(ctx, ts.admin, "")
	require.NoError(t, err)
	require.Empty(t, documents)
}

func TestService_PaymentAmountsRounded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{})

	c, err := ts.svc.CreateCustomer(ctx, ts.admin, entity.Customer{
		CompanyName:    "Rates",
		Country:        "Japan",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Aiko",
	})
	require.NoError(t, err)

	svc, err := ts.svc.CreateService(ctx, ts.admin, entity.Service{CustomerID: c.ID, Type: "Bookkeeping"})
	require.NoError(t, err)

	payment, err := ts.svc.CreatePayment(ctx, ts.admin, entity.Payment{
		ServiceID:      svc.ID,
		Currency:       "JPY",
		OriginalAmount: decimal.RequireFromString("1234.56789"),
		ExchangeRate:   decimal.RequireFromString("0.123456789"),
		Deposit:        decimal.RequireFromString("0.00004"),
	})
	require.NoError(t, err)
	require.Equal(t, "1234.5679", payment.OriginalAmount.String())
	require.Equal(t, "0.12345679", payment.ExchangeRate.String())
	require.Equal(t, "152.4158", payment.ConvertedAmount.String())
	require.True(t, payment.Deposit.IsZero(), payment.Deposit)

	first := decimal.RequireFromString("10.12346")

	updated, err := ts.svc.UpdatePayment(ctx, ts.admin, payment.ID, entity.PaymentUpdate{FirstPayment: &first})
	require.NoError(t, err)
	require.Equal(t, "10.1235", updated.FirstPayment.String())
	require.Equal(t, "10.12346", first.String())
}

func TestService_DocumentFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{MaxFileSize: 10})
	employee := ts.employee(t, "files@company.com")

	c, err := ts.svc.CreateCustomer(ctx, ts.admin, entity.Customer{
		CompanyName:    "Files Co",
		Country:        "Japan",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Ken",
	})
	require.NoError(t, err)

	doc, err := ts.svc.CreateDocument(ctx, ts.admin, entity.Document{CustomerID: c.ID, Type: "Contract", Name: "contract"})
	require.NoError(t, err)

	body := strings.NewReader("%PDF-1")

	_, err = ts.svc.AttachDocumentFile(ctx, employee, doc.ID, "a.pdf", "application/pdf", 6, body)
	require.ErrorIs(t, err, entity.ErrNotFound)

	_, err = ts.svc.AttachDocumentFile(ctx, ts.admin, doc.ID, "a.pdf", "application/pdf", 0, body)
	require.ErrorIs(t, err, entity.ErrValidation)

	_, err = ts.svc.AttachDocumentFile(ctx, ts.admin, doc.ID, "a.pdf", "application/pdf", 11, body)
	require.ErrorIs(t, err, entity.ErrValidation)

	_, _, err = ts.svc.DocumentFileURL(ctx, ts.admin, doc.ID)
	require.ErrorIs(t, err, entity.ErrNoFile)

	var keys []string

	ts.storage.EXPECT().Put(gomock.Any(), gomock.Any(), body, int64(6), "application/pdf").
		DoAndReturn(func(_ context.Context, key string, _ io.ReadSeeker, _ int64, _ string) error {
			keys = append(keys, key)
			return nil
		}).Times(2)

	f, err := ts.svc.AttachDocumentFile(ctx, ts.admin, doc.ID, "../../etc/a.pdf", "application/pdf", 6, body)
	require.NoError(t, err)
	require.Equal(t, "a.pdf", f.Name)
	require.True(t, strings.HasPrefix(f.Key, "documents/"+c.ID+"/"+doc.ID.String()+"/"), f.Key)

	ts.storage.EXPECT().Delete(gomock.Any(), f.Key).Return(nil)

	second, err := ts.svc.AttachDocumentFile(ctx, ts.admin, doc.ID, "b.pdf", "application/pdf", 6, body)
	require.NoError(t, err)
	require.Equal(t, []string{f.Key, second.Key}, keys)

	expiresAt := time.Now().Add(time.Minute)
	ts.storage.EXPECT().URL(gomock.Any(), second.Key).Return("https://files.test/b.pdf", expiresAt, nil)

	link, gotExpiry, err := ts.svc.DocumentFileURL(ctx, ts.admin, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "https://files.test/b.pdf", link)
	require.Equal(t, expiresAt, gotExpiry)

	ts.storage.EXPECT().Put(gomock.Any(), gomock.Any(), body, int64(6), "").Return(errors.New("bucket gone"))

	_, err = ts.svc.AttachDocumentFile(ctx, ts.admin, doc.ID, "c.pdf", "", 6, body)
	require.ErrorIs(t, err, entity.ErrStorage)

	ts.storage.EXPECT().Delete(gomock.Any(), second.Key).Return(errors.New("already gone"))

	res, err := ts.svc.DeleteCustomer(ctx, ts.admin, c.ID)
	require.NoError(t, err)
	require.Equal(t, []string{second.Key}, res.FileKeys)
}

func TestService_DocumentFilesDisabled(t *testing.T) {
	t.Parallel()

	ref, err := reference.Load()
	require.NoError(t, err)

	svc := service.New(repository.SetupTestRepository(t), security.NewBcryptHasher(bcrypt.MinCost), nil, nil, nil, ref,
		service.Options{})

	_, err = svc.AttachDocumentFile(context.Background(), entity.SystemCaller(), uuid.Must(uuid.NewV4()), "a.pdf", "", 1,
		strings.NewReader("a"))
	require.ErrorIs(t, err, entity.ErrFilesDisabled)

	_, _, err = svc.DocumentFileURL(context.Background(), entity.SystemCaller(), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, entity.ErrFilesDisabled)
}

func TestService_UpdateTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{})

	c, err := ts.svc.CreateCustomer(ctx, ts.admin, entity.Customer{
		CompanyName:    "Tasks",
		Country:        "Vietnam",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Lan",
	})
	require.NoError(t, err)

	svc, err := ts.svc.CreateService(ctx, ts.admin, entity.Service{CustomerID: c.ID, Type: "Bookkeeping"})
	require.NoError(t, err)

	task, err := ts.svc.CreateTask(ctx, ts.admin, entity.WorkTask{ServiceID: svc.ID, Name: "Close month"})
	require.NoError(t, err)
	require.Equal(t, entity.TaskNotStarted, task.Status)

	done := entity.TaskDone
	progress := 60
	tooMuch := 101

	_, err = ts.svc.UpdateTask(ctx, ts.admin, task.ID, entity.TaskUpdate{Progress: &tooMuch})
	require.ErrorIs(t, err, entity.ErrValidation)

	_, err = ts.svc.UpdateTask(ctx, ts.admin, task.ID, entity.TaskUpdate{})
	require.ErrorIs(t, err, entity.ErrValidation)

	view, err := ts.svc.UpdateTask(ctx, ts.admin, task.ID, entity.TaskUpdate{Status: &done, Progress: &progress})
	require.NoError(t, err)
	require.Equal(t, entity.TaskDone, view.Status)
	require.Equal(t, 60, view.Progress)

	_, err = ts.svc.UpdateTask(ctx, ts.admin, uuid.Must(uuid.NewV4()), entity.TaskUpdate{Status: &done})
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestService_Meetings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{})
	employee := ts.employee(t, "planner@company.com")

	c, err := ts.svc.CreateCustomer(ctx, ts.admin, entity.Customer{
		CompanyName:    "Meet",
		Country:        "Vietnam",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Hoa",
		AssignedTo:     employee.UserRef(),
	})
	require.NoError(t, err)

	start := time.Date(2026, 11, 2, 9, 0, 0, 0, time.UTC)

	ts.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).Return("https://calendar.test/e/1", nil)

	own, err := ts.svc.CreateMeeting(ctx, ts.admin, entity.Meeting{
		CustomerID: c.ID,
		Title:      "Kickoff",
		StartsAt:   start,
		EndsAt:     start.Add(time.Hour),
		Attendees:  []string{"hoa@meet.test"},
	})
	require.NoError(t, err)
	require.True(t, own.Approved)
	require.Equal(t, "https://calendar.test/e/1", own.CalendarLink)

	_, err = ts.svc.CreateMeeting(ctx, employee, entity.Meeting{
		CustomerID: c.ID,
		Title:      "Backwards",
		StartsAt:   start,
		EndsAt:     start.Add(-time.Hour),
	})
	require.ErrorIs(t, err, entity.ErrValidation)

	pending, err := ts.svc.CreateMeeting(ctx, employee, entity.Meeting{
		CustomerID: c.ID,
		Title:      "Follow-up",
		StartsAt:   start.Add(24 * time.Hour),
		EndsAt:     start.Add(25 * time.Hour),
	})
	require.NoError(t, err)
	require.False(t, pending.Approved)

	listed, err := ts.svc.Meetings(ctx, employee, c.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	ts.calendar.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).Return("", errors.New("calendar unavailable"))
	ts.mailer.EXPECT().Send(gomock.Any(), employee.Email, "Meeting approved", gomock.Any(), false).Return(nil)

	approved, delivery, err := ts.svc.ApproveMeeting(ctx, ts.admin, pending.ID)
	require.NoError(t, err)
	require.True(t, approved.Approved)
	require.Empty(t, approved.CalendarLink)
	require.True(t, delivery.Sent)

	listed, err = ts.svc.Meetings(ctx, employee, c.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	err = ts.svc.RejectMeeting(ctx, ts.admin, pending.ID)
	require.ErrorIs(t, err, entity.ErrNotPending)
}

func TestService_Dashboard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{
		Now: func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) },
	})
	employee := ts.employee(t, "dash@company.com")

	_, err := ts.svc.CreateCustomer(ctx, employee, entity.Customer{
		CompanyName:    "Pending Co",
		Country:        "Vietnam",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Tuan",
	})
	require.NoError(t, err)

	d, err := ts.svc.Dashboard(ctx, ts.admin)
	require.NoError(t, err)
	require.Equal(t, 1, d.PendingCustomers)
	require.Equal(t, 1, d.UnreadNotifications)
	require.Zero(t, d.Customers)

	d, err = ts.svc.Dashboard(ctx, employee)
	require.NoError(t, err)
	require.Zero(t, d.PendingCustomers)
	require.Zero(t, d.Customers)
}

func TestService_RefreshBacklog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ts := newTestService(t, service.Options{})
	employee := ts.employee(t, "backlog@company.com")

	_, err := ts.svc.CreateCustomer(ctx, employee, entity.Customer{
		CompanyName:    "Waiting Ltd",
		Country:        "Hong Kong",
		Category:       entity.CategoryCompany,
		ContactPerson1: "Lee",
	})
	require.NoError(t, err)

	require.NoError(t, ts.svc.RefreshBacklog(ctx))
	require.InDelta(t, 1, testutil.ToFloat64(metrics.Backlog.WithLabelValues("pending_customers")), 0)
	require.InDelta(t, 0, testutil.ToFloat64(metrics.Backlog.WithLabelValues("pending_meetings")), 0)
}
