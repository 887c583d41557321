package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	customerRepo repository.CustomerRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	CustomerRepo repository.CustomerRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		customerRepo: params.CustomerRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
	}
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new customer account with a hashed password. The
// uniqueness check and the insert run in one transaction so concurrent
// registrations of the same email cannot both succeed.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	srv.log(ctx).Info("Registering customer", slog.String("email", email))

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("failed to hash password")
	}

	var registered *entity.Customer
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		customerRepo := repoFactory.CustomerRepo()

		_, err := customerRepo.FindByEmail(ctx, email)
		if err == nil {
			return domainerrors.ErrCustomerAlreadyExists
		}
		if !errors.Is(err, repository.ErrCustomerNotFound) {
			return errors.Wrap(err, "failed to find customer")
		}

		customer := &entity.Customer{
			ID:           uuid.New(),
			Email:        email,
			Name:         input.Name,
			PasswordHash: hash,
			Role:         entity.RoleCustomer,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := customerRepo.Create(ctx, customer); err != nil {
			return errors.Wrap(err, "failed to create customer")
		}

		registered = customer

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Customer registered", slog.String("customer_id", registered.ID.String()))

	return &usecase.RegisterOutput{Customer: registered}, nil
}

// Login verifies the credentials and issues an access token. Lookup
// failure and password mismatch return the same error so the response
// does not reveal whether the email is registered.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	customer, err := srv.customerRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrCustomerNotFound) {
		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find customer")
	}

	if !srv.hasher.Check(input.Password, customer.PasswordHash) {
		return nil, domainerrors.ErrInvalidCredentials
	}

	token, err := srv.tokenService.GenerateToken(customer.ID, customer.Role)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	srv.log(ctx).Info("Customer logged in", slog.String("customer_id", customer.ID.String()))

	return &usecase.LoginOutput{AccessToken: token, Customer: customer}, nil
}
