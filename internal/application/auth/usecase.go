package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-api/internal/application/audit"
	"github.com/jhoicas/clinica-api/internal/application/dto"
	"github.com/jhoicas/clinica-api/internal/application/permission"
	"github.com/jhoicas/clinica-api/internal/application/ratelimit"
	"github.com/jhoicas/clinica-api/internal/domain"
	"github.com/jhoicas/clinica-api/internal/domain/entity"
	"github.com/jhoicas/clinica-api/internal/domain/repository"
	"github.com/jhoicas/clinica-api/pkg/logger"
)

// MinPasswordLength longitud mínima de una contraseña nueva.
const MinPasswordLength = 8

// RequestMeta datos del cliente que origina la operación.
type RequestMeta struct {
	ClientID  string // clave del limitador (IP efectiva del cliente)
	IP        string
	UserAgent string
}

// RateLimitError cliente bloqueado hasta ResetTime. errors.Is(err, domain.ErrRateLimited) es true.
type RateLimitError struct {
	ResetTime time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (hasta %s)", domain.ErrRateLimited, e.ResetTime.UTC().Format(time.RFC3339))
}

// Is permite comparar con domain.ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// LoginResult token para la cookie + perfil público.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      dto.UserResponse
}

// Deps colaboradores del caso de uso. Limiter y Audit son opcionales.
type Deps struct {
	Users       repository.UserRepository
	Sessions    *SessionStore
	Tokens      TokenService
	Hasher      *PasswordHasher
	Limiter     *ratelimit.Limiter
	Permissions *permission.Resolver
	Audit       audit.Emitter
	Log         *logger.Logger
	Now         func() time.Time
}

// AuthUseCase casos de uso de autenticación: registro, login, logout,
// cambio de contraseña y permisos del usuario actual.
type AuthUseCase struct {
	users    repository.UserRepository
	sessions *SessionStore
	tokens   TokenService
	hasher   *PasswordHasher
	limiter  *ratelimit.Limiter
	perms    *permission.Resolver
	audit    audit.Emitter
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(d Deps) *AuthUseCase {
	uc := &AuthUseCase{
		users:    d.Users,
		sessions: d.Sessions,
		tokens:   d.Tokens,
		hasher:   d.Hasher,
		limiter:  d.Limiter,
		perms:    d.Permissions,
		audit:    d.Audit,
		log:      d.Log,
		now:      d.Now,
	}
	if uc.audit == nil {
		uc.audit = audit.Nop{}
	}
	if uc.log == nil {
		uc.log = logger.NewNop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// Login verifica credenciales y abre una sesión.
//
// El limitador se consulta sin registrar antes de autenticar; solo un fallo
// de credenciales confirmado consume un intento.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest, meta RequestMeta) (*LoginResult, error) {
	email := entity.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email y contraseña son obligatorios", domain.ErrInvalidInput)
	}

	if uc.limiter != nil {
		st, err := uc.limiter.Status(ctx, meta.ClientID)
		if err != nil {
			uc.log.Warn().Err(err).Str("client_id", meta.ClientID).Msg("limitador no disponible, se permite el intento")
		} else if !st.Allowed {
			return nil, &RateLimitError{ResetTime: st.ResetTime}
		}
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	hash := ""
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := uc.hasher.Verify(ctx, in.Password, hash)
	if err != nil {
		return nil, err
	}
	if user == nil || !ok {
		uc.recordFailure(ctx, meta)
		ev := uc.event(audit.ActionLoginFailed, "", meta)
		ev.Details = map[string]string{"email": email, "reason": "credentials"}
		uc.audit.Emit(ev)
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive() {
		ev := uc.event(audit.ActionLoginFailed, user.ID, meta)
		ev.Details = map[string]string{"reason": "inactive"}
		uc.audit.Emit(ev)
		return nil, domain.ErrInactiveAccount
	}
	if strings.TrimSpace(in.Role) != "" && entity.NormalizeRoleName(in.Role) != entity.NormalizeRoleName(user.Role) {
		return nil, domain.ErrRoleMismatch
	}

	token, _, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	sess, err := uc.sessions.Create(ctx, user.ID, token, SessionMeta{UserAgent: meta.UserAgent, IP: meta.IP})
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	if err := uc.users.TouchLastAccess(ctx, user.ID, now); err != nil {
		uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("no se pudo actualizar last_access")
	} else {
		user.LastAccess = &now
	}

	uc.audit.Emit(uc.event(audit.ActionLogin, user.ID, meta))
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, User: dto.NewUserResponse(user)}, nil
}

func (uc *AuthUseCase) recordFailure(ctx context.Context, meta RequestMeta) {
	if uc.limiter == nil {
		return
	}
	if _, err := uc.limiter.RecordFailure(ctx, meta.ClientID); err != nil {
		uc.log.Warn().Err(err).Str("client_id", meta.ClientID).Msg("no se pudo registrar el intento fallido")
	}
}

// Logout elimina la sesión del token. Siempre tiene éxito salvo fallo de
// infraestructura, aunque la sesión ya no exista.
func (uc *AuthUseCase) Logout(ctx context.Context, token string, meta RequestMeta) error {
	if token == "" {
		return nil
	}
	if err := uc.sessions.DeleteByToken(ctx, token); err != nil {
		return err
	}
	actor := ""
	if claims, ok := uc.tokens.Verify(token); ok {
		actor = claims.UserID()
	}
	uc.audit.Emit(uc.event(audit.ActionLogout, actor, meta))
	return nil
}

// Register alta pública. El rol por defecto es recepcionista y no se permite
// auto-asignarse el rol administrador ni roles desconocidos.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest, meta RequestMeta) (*dto.UserResponse, error) {
	if uc.limiter != nil {
		res, err := uc.limiter.Check(ctx, meta.ClientID)
		if err != nil {
			uc.log.Warn().Err(err).Str("client_id", meta.ClientID).Msg("limitador no disponible, se permite el registro")
		} else if !res.Allowed {
			return nil, &RateLimitError{ResetTime: res.ResetTime}
		}
	}

	email := entity.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email no válido", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, fmt.Errorf("%w: nombre y apellidos son obligatorios", domain.ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	role := entity.RoleRecepcionista
	if strings.TrimSpace(in.Role) != "" {
		role = entity.NormalizeRoleName(in.Role)
	}
	if !entity.IsKnownRole(role) || role == entity.RoleAdministrador {
		return nil, domain.ErrInvalidRole
	}

	existing, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("registro: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := uc.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	user := &entity.User{
		ID:             uuid.New().String(),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          email,
		Phone:          strings.TrimSpace(in.Phone),
		PasswordHash:   hash,
		ProfessionalID: strings.TrimSpace(in.ProfessionalID),
		Specialty:      strings.TrimSpace(in.Specialty),
		Role:           role,
		Status:         entity.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	ev := uc.event(audit.ActionRegister, user.ID, meta)
	ev.Entity, ev.EntityID = "user", user.ID
	uc.audit.Emit(ev)
	out := dto.NewUserResponse(user)
	return &out, nil
}

// ChangePassword verifica la contraseña actual, guarda la nueva y cierra las
// demás sesiones del usuario; la sesión de currentToken sigue abierta.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, user *entity.User, currentToken string, in dto.ChangePasswordRequest, meta RequestMeta) error {
	if user == nil {
		return domain.ErrUnauthorized
	}
	if in.CurrentPassword == "" || len(in.NewPassword) < MinPasswordLength {
		return fmt.Errorf("%w: la nueva contraseña debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	ok, err := uc.hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}
	hash, err := uc.hasher.Hash(ctx, in.NewPassword)
	if err != nil {
		return err
	}
	if err := uc.users.UpdatePassword(ctx, user.ID, hash, uc.now().UTC()); err != nil {
		return err
	}
	n, err := uc.sessions.RevokeUser(ctx, user.ID, currentToken)
	if err != nil {
		return err
	}

	ev := uc.event(audit.ActionPasswordChange, user.ID, meta)
	ev.Details = map[string]string{"revoked_sessions": fmt.Sprint(n)}
	uc.audit.Emit(ev)
	return nil
}

// Permissions permisos efectivos del rol del usuario.
func (uc *AuthUseCase) Permissions(ctx context.Context, user *entity.User) (*dto.PermissionsResponse, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	set, err := uc.perms.Resolve(ctx, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.PermissionsResponse{Role: user.Role, Permissions: set.List()}, nil
}

// SignOutEveryone cierra todas las sesiones abiertas.
func (uc *AuthUseCase) SignOutEveryone(ctx context.Context, actorID string, meta RequestMeta) (int64, error) {
	n, err := uc.sessions.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	ev := uc.event(audit.ActionSessionsPurge, actorID, meta)
	ev.Details = map[string]string{"deleted": fmt.Sprint(n)}
	uc.audit.Emit(ev)
	return n, nil
}

func (uc *AuthUseCase) event(action, actorID string, meta RequestMeta) audit.Event {
	return audit.Event{
		Action:    action,
		ActorID:   actorID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
}

// IsRateLimited extrae el bloqueo de err, si lo hay.
func IsRateLimited(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
