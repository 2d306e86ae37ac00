// Package jitter добавляет случайность в задержки повторов, чтобы клиенты не повторяли
// запросы одновременно (thundering herd).
package jitter

import (
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает задержку в диапазоне [d, d*(1+factor)].
func Duration(d time.Duration, factor float64) time.Duration {
	randMutex.Lock()
	extra := globalRand.Float64() * factor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(extra)
}

// DurationWithRand — Duration с заданным генератором, для детерминированных тестов.
func DurationWithRand(d time.Duration, factor float64, rng *rand.Rand) time.Duration {
	return d + time.Duration(rng.Float64()*factor*float64(d))
}

// Backoff — экспоненциальное расписание повторов с потолком.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// Delay возвращает задержку с джиттером перед повтором attempt (нумерация с нуля).
func (b Backoff) Delay(attempt int) time.Duration {
	return ExponentialBackoff(b.Base, b.Max, attempt, b.Factor)
}

// Sleep ждёт Delay(attempt) или закрытия done. true — задержка выдержана полностью.
func (b Backoff) Sleep(done <-chan struct{}, attempt int) bool {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-done:
		return false
	}
}

// ExponentialBackoff удваивает base на каждой попытке до max и добавляет джиттер.
func ExponentialBackoff(base, max time.Duration, attempt int, factor float64) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > max {
			delay = max
			break
		}
	}
	return Duration(delay, factor)
}
