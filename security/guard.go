package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chengshang-tools/update-server/utils"
	"github.com/patrickmn/go-cache"
	"github.com/pquerna/otp/totp"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrLockedOut    = errors.New("too many failed attempts")
)

// Options 管理接口鉴权配置
type Options struct {
	Token      string
	TOTPSecret string
	// Disabled 为 true 时不做任何校验（与早期版本行为一致）
	Disabled bool

	MaxFailures   int
	FailureWindow time.Duration
	Lockout       time.Duration

	Now func() time.Time
}

// Guard 校验管理员凭据，并对连续失败的 IP 做临时封禁
type Guard struct {
	opts     Options
	failures *cache.Cache
	locked   *cache.Cache
}

// NewGuard 未配置 token 时自动生成一个（generated 为 true，由调用方负责输出）
func NewGuard(opts Options) (g *Guard, generated bool) {
	if !opts.Disabled && strings.TrimSpace(opts.Token) == "" {
		opts.Token = utils.GenerateRandomString(32)
		generated = true
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	window := opts.FailureWindow
	if window <= 0 {
		window = cache.NoExpiration
	}
	lockout := opts.Lockout
	if lockout <= 0 {
		lockout = cache.NoExpiration
	}
	return &Guard{
		opts:     opts,
		failures: cache.New(window, time.Minute),
		locked:   cache.New(lockout, time.Minute),
	}, generated
}

func (g *Guard) Disabled() bool {
	return g.opts.Disabled
}

// Token 返回当前生效的管理员 token
func (g *Guard) Token() string {
	return g.opts.Token
}

// Check 校验一次请求。authorization 为 Authorization 头原值，code 为 TOTP 动态码。
func (g *Guard) Check(ip, authorization, code string) error {
	if g.opts.Disabled {
		return nil
	}
	if g.opts.MaxFailures > 0 {
		if _, locked := g.locked.Get(ip); locked {
			return ErrLockedOut
		}
	}
	if err := g.verify(authorization, code); err != nil {
		g.recordFailure(ip)
		return err
	}
	g.failures.Delete(ip)
	return nil
}

func (g *Guard) verify(authorization, code string) error {
	token, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Bearer ")
	if !ok || token == "" {
		return fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(g.opts.Token)) != 1 {
		return fmt.Errorf("%w: bad token", ErrUnauthorized)
	}
	if g.opts.TOTPSecret == "" {
		return nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: missing totp code", ErrUnauthorized)
	}
	if !totp.Validate(code, g.opts.TOTPSecret) {
		return fmt.Errorf("%w: bad totp code", ErrUnauthorized)
	}
	return nil
}

func (g *Guard) recordFailure(ip string) {
	if g.opts.MaxFailures <= 0 {
		return
	}
	// 窗口从第一次失败开始计时
	_ = g.failures.Add(ip, 0, cache.DefaultExpiration)
	n, err := g.failures.IncrementInt(ip, 1)
	if err != nil {
		return
	}
	if n >= g.opts.MaxFailures {
		g.locked.SetDefault(ip, g.opts.Now())
		g.failures.Delete(ip)
	}
}

// LockedSince 返回 IP 被封禁的时间
func (g *Guard) LockedSince(ip string) (time.Time, bool) {
	v, ok := g.locked.Get(ip)
	if !ok {
		return time.Time{}, false
	}
	t, _ := v.(time.Time)
	return t, true
}
