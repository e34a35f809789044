package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	authdomain "mailchat-backend/internal/auth/domain"
	authdto "mailchat-backend/internal/auth/dto"
	emaildomain "mailchat-backend/internal/email/domain"
	"mailchat-backend/pkg/config"

	"github.com/google/uuid"
	"github.com/nalgeon/be"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users  map[string]*authdomain.User // by id
	tokens map[string]*authdomain.RefreshToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*authdomain.User),
		tokens: make(map[string]*authdomain.RefreshToken),
	}
}

func (r *fakeUserRepo) Create(user *authdomain.User) error {
	user.ID = uuid.New().String()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(id string) (*authdomain.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) Update(user *authdomain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(token *authdomain.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return r.tokens[token], nil
}

func (r *fakeUserRepo) DeleteRefreshToken(token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) DeleteRefreshTokensByUser(userID string) error {
	for t, tok := range r.tokens {
		if tok.UserID == userID {
			delete(r.tokens, t)
		}
	}
	return nil
}

// fakeValidator accepts or rejects every IMAP login.
type fakeValidator struct {
	err error
}

func (v *fakeValidator) ValidateCredentials(ctx context.Context, creds *emaildomain.Credentials) error {
	return v.err
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, &fakeValidator{}, testConfig())

	resp, err := uc.Register(&authdto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret123",
		Name:     "Alice",
	})
	be.Err(t, err, nil)
	be.True(t, resp.AccessToken != "")
	be.True(t, resp.RefreshToken != "")
	be.Equal(t, resp.User.Provider, "email")

	// password is stored hashed
	stored, _ := repo.FindByEmail("alice@example.com")
	be.True(t, stored.Password != "secret123")

	login, err := uc.Login(&authdto.LoginRequest{Email: "alice@example.com", Password: "secret123"})
	be.Err(t, err, nil)
	be.Equal(t, login.User.ID, resp.User.ID)

	_, err = uc.Login(&authdto.LoginRequest{Email: "alice@example.com", Password: "wrong-pass"})
	be.True(t, err != nil)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, &fakeValidator{}, testConfig())

	_, err := uc.Register(&authdto.RegisterRequest{Email: "a@b.com", Password: "secret123", Name: "A"})
	be.Err(t, err, nil)

	_, err = uc.Register(&authdto.RegisterRequest{Email: "a@b.com", Password: "secret123", Name: "A"})
	be.True(t, err != nil)
}

func TestValidateToken(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, &fakeValidator{}, testConfig())

	resp, err := uc.Register(&authdto.RegisterRequest{Email: "a@b.com", Password: "secret123", Name: "A"})
	be.Err(t, err, nil)

	user, err := uc.ValidateToken(resp.AccessToken)
	be.Err(t, err, nil)
	be.Equal(t, user.Email, "a@b.com")

	_, err = uc.ValidateToken("not-a-jwt")
	be.True(t, err != nil)
}

func TestRefreshTokenFlow(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, &fakeValidator{}, testConfig())

	resp, err := uc.Register(&authdto.RegisterRequest{Email: "a@b.com", Password: "secret123", Name: "A"})
	be.Err(t, err, nil)

	refreshed, err := uc.RefreshToken(resp.RefreshToken)
	be.Err(t, err, nil)
	be.Equal(t, refreshed.User.ID, resp.User.ID)

	// logout invalidates the stored token
	be.Err(t, uc.Logout(resp.RefreshToken), nil)
	_, err = uc.RefreshToken(resp.RefreshToken)
	be.True(t, err != nil)
}

func TestIMAPLogin(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, &fakeValidator{}, testConfig())

	resp, err := uc.IMAPLogin(context.Background(), &authdto.IMAPLoginRequest{
		IMAPHost: "imap.example.com:993",
		SMTPHost: "smtp.example.com:465",
		Username: "me@example.com",
		Password: "app-password",
	})
	be.Err(t, err, nil)
	be.Equal(t, resp.User.Provider, "imap")
	be.Equal(t, resp.User.IMAPHost, "imap.example.com:993")
}

func TestIMAPLoginRejectedCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, &fakeValidator{err: errors.New("IMAP login failed")}, testConfig())

	_, err := uc.IMAPLogin(context.Background(), &authdto.IMAPLoginRequest{
		IMAPHost: "imap.example.com:993",
		SMTPHost: "smtp.example.com:465",
		Username: "me@example.com",
		Password: "bad",
	})
	be.True(t, err != nil)
	be.Equal(t, len(repo.users), 0)
}
