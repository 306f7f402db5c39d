package decorator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
)

// Defaults for Lua strategies.
const (
	DefaultMemoSize = 512
	DefaultTimeout  = 100 * time.Millisecond
)

// strategyFunc is the global a script must define.
const strategyFunc = "strategy"

// LuaStrategy decorates ranges computed by a Lua script.
//
// gopher-lua states are not goroutine-safe; calls are serialized by mu.
type LuaStrategy struct {
	mu      sync.Mutex
	L       *lua.LState
	memo    *lru.Cache[string, [][2]int]
	logger  *zap.Logger
	timeout time.Duration
	closed  bool
}

// LuaOption configures a LuaStrategy.
type LuaOption func(*luaConfig)

type luaConfig struct {
	logger   *zap.Logger
	memoSize int
	timeout  time.Duration
}

// WithLuaLogger sets the logger used to report script failures.
func WithLuaLogger(l *zap.Logger) LuaOption {
	return func(c *luaConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMemoSize sets how many block texts keep memoized results.
func WithMemoSize(n int) LuaOption {
	return func(c *luaConfig) {
		if n > 0 {
			c.memoSize = n
		}
	}
}

// WithTimeout bounds a single script call.
func WithTimeout(d time.Duration) LuaOption {
	return func(c *luaConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewLuaStrategy loads script into a sandboxed state. The script must
// define a global function named strategy.
func NewLuaStrategy(script string, opts ...LuaOption) (*LuaStrategy, error) {
	cfg := luaConfig{
		logger:   zap.NewNop(),
		memoSize: DefaultMemoSize,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	memo, err := lru.New[string, [][2]int](cfg.memoSize)
	if err != nil {
		return nil, fmt.Errorf("create memo: %w", err)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	s := &LuaStrategy{
		L:       L,
		memo:    memo,
		logger:  cfg.logger,
		timeout: cfg.timeout,
	}
	if err := s.do(func() error { return L.DoString(script) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("load script: %w", err)
	}
	if fn := L.GetGlobal(strategyFunc); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrStrategyUndefined
	}
	return s, nil
}

// openSafeLibraries opens the base, table, string and math libraries and
// removes the loaders that reach the file system.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// do runs fn under the call deadline, converting panics to errors.
func (s *LuaStrategy) do(fn func() error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	err = fn()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

// Eval returns the rune ranges the script selects in text.
func (s *LuaStrategy) Eval(text string) ([][2]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if ranges, ok := s.memo.Get(text); ok {
		return ranges, nil
	}

	var ret lua.LValue
	err := s.do(func() error {
		if err := s.L.CallByParam(lua.P{
			Fn:      s.L.GetGlobal(strategyFunc),
			NRet:    1,
			Protect: true,
		}, lua.LString(text)); err != nil {
			return err
		}
		ret = s.L.Get(-1)
		s.L.Pop(1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranges := s.convert(text, ret)
	s.memo.Add(text, ranges)
	return ranges, nil
}

// convert turns string.find style byte positions into rune ranges,
// skipping malformed entries.
func (s *LuaStrategy) convert(text string, ret lua.LValue) [][2]int {
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		if ret != lua.LNil {
			s.logger.Warn("lua strategy returned a non-table", zap.String("type", ret.Type().String()))
		}
		return nil
	}
	var out [][2]int
	for i := 1; i <= tbl.Len(); i++ {
		pair, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			s.logger.Warn("lua strategy range is not a table", zap.Int("index", i))
			continue
		}
		start, ok1 := pair.RawGetInt(1).(lua.LNumber)
		end, ok2 := pair.RawGetInt(2).(lua.LNumber)
		bs, be := int(start), int(end)
		if !ok1 || !ok2 || bs < 1 || be < bs || be > len(text) {
			s.logger.Warn("lua strategy range out of bounds",
				zap.Int("index", i), zap.Int("start", bs), zap.Int("end", be))
			continue
		}
		out = append(out, [2]int{
			utf8.RuneCountInString(text[:bs-1]),
			utf8.RuneCountInString(text[:be]),
		})
	}
	return out
}

// Find implements Strategy. Script failures are logged and decorate
// nothing.
func (s *LuaStrategy) Find(b *block.Block, _ *content.ContentState, cb block.RangeFunc) {
	ranges, err := s.Eval(b.Text())
	if err != nil {
		s.logger.Error("lua strategy failed", zap.String("block", b.Key()), zap.Error(err))
		return
	}
	for _, r := range ranges {
		cb(r[0], r[1])
	}
}

// Close releases the Lua state. Further calls return ErrClosed.
func (s *LuaStrategy) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
