// Package luck provides the draws used to decide cache spawns and coin counts.
//
// A Deterministic source hashes the draw key with HMAC-SHA256 keyed by the
// world seed, so the same key always yields the same value, across calls and
// process restarts. A Random source ignores the key.
package luck

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ModeDeterministic = "deterministic"
	ModeRandom        = "random"
)

// Source produces values in [0,1) for a key.
type Source interface {
	Draw(key ...any) float64
}

// New returns the source for mode. Unknown modes are an error.
func New(mode string, seed int64) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeDeterministic:
		return NewDeterministic(seed), nil
	case ModeRandom:
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("unknown luck mode %q", mode)
	}
}

type Deterministic struct {
	secret []byte
}

func NewDeterministic(seed int64) Deterministic {
	return Deterministic{secret: []byte(strconv.FormatInt(seed, 10))}
}

func (d Deterministic) Draw(key ...any) float64 {
	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(Key(key...)))
	var sum [sha256.Size]byte
	mac.Sum(sum[:0])
	return bytesToFloat([4]byte{sum[0], sum[1], sum[2], sum[3]})
}

// Draw is a one-shot deterministic draw.
func Draw(seed int64, key ...any) float64 {
	return NewDeterministic(seed).Draw(key...)
}

// Random wraps math/rand. Seed 0 seeds from the clock.
type Random struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{r: rand.New(rand.NewSource(seed))}
}

func (r *Random) Draw(_ ...any) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// Int maps a draw onto the closed range [min, max].
func Int(src Source, min, max int, key ...any) int {
	if max <= min {
		return min
	}
	n := int(math.Floor(src.Draw(key...) * float64(max-min+1)))
	return min + n
}

// Key joins the parts with ':' into the canonical hashed string.
func Key(parts ...any) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		switch v := p.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString(strconv.Itoa(v))
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		case float64:
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		default:
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

// bytesToFloat folds four bytes into [0,1): sum(b[i] / 256^(i+1)).
func bytesToFloat(b [4]byte) float64 {
	out := 0.0
	div := 1.0
	for _, x := range b {
		div *= 256
		out += float64(x) / div
	}
	return out
}
