package scanner

import (
	"fmt"

	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
)

// DefaultThreshold — сколько одинаковых распознаваний нужно для подтверждения кода.
const DefaultThreshold = 5

// Observation — результат одного распознавания, переданного дебаунсеру.
type Observation struct {
	Hits      int
	Confirmed bool
}

// Debouncer — автомат Idle -> Scanning -> Confirmed -> Idle.
// Не потокобезопасен, доступ сериализует Session.
type Debouncer struct {
	threshold     int
	state         State
	hits          map[string]int
	lastConfirmed string
	prevConfirmed string
}

func NewDebouncer(threshold int) *Debouncer {
	if threshold < 1 {
		threshold = 1
	}

	return &Debouncer{
		threshold: threshold,
		state:     StateIdle,
		hits:      make(map[string]int),
	}
}

func (d *Debouncer) State() State {
	return d.state
}

func (d *Debouncer) Threshold() int {
	return d.threshold
}

// LastConfirmed возвращает последний подтверждённый код или "".
func (d *Debouncer) LastConfirmed() string {
	return d.lastConfirmed
}

// Hits возвращает текущий счётчик кода.
func (d *Debouncer) Hits(code string) int {
	return d.hits[code]
}

// Start начинает новый прогон. Счётчики и последний подтверждённый код сбрасываются.
func (d *Debouncer) Start() error {
	if d.state != StateIdle {
		return fmt.Errorf("%w: start from %s", e.ErrInvalidTransition, d.state)
	}

	clear(d.hits)
	d.lastConfirmed = ""
	d.prevConfirmed = ""
	d.state = StateScanning
	return nil
}

// Observe учитывает одно распознавание. Вне Scanning ничего не делает.
func (d *Debouncer) Observe(code string) Observation {
	if d.state != StateScanning || code == "" {
		return Observation{}
	}

	d.hits[code]++
	hits := d.hits[code]

	if hits < d.threshold || code == d.lastConfirmed {
		return Observation{Hits: hits}
	}

	d.prevConfirmed = d.lastConfirmed
	d.lastConfirmed = code
	clear(d.hits)
	d.state = StateConfirmed
	return Observation{Hits: hits, Confirmed: true}
}

// Restart возобновляет сканирование после подтверждения. Последний подтверждённый код
// сохраняется: повторно тот же код в сессии не подтверждается.
func (d *Debouncer) Restart() error {
	if d.state == StateIdle {
		return fmt.Errorf("%w: restart from %s", e.ErrInvalidTransition, d.state)
	}

	clear(d.hits)
	d.state = StateScanning
	return nil
}

// Reject отменяет последнее подтверждение code и возвращает дебаунсер в Scanning.
// Код снова может быть подтверждён. Вне Confirmed или для другого кода ничего не делает.
func (d *Debouncer) Reject(code string) bool {
	if d.state != StateConfirmed || d.lastConfirmed != code {
		return false
	}

	d.lastConfirmed = d.prevConfirmed
	clear(d.hits)
	d.state = StateScanning
	return true
}

// Stop переводит в Idle из любого состояния.
func (d *Debouncer) Stop() {
	clear(d.hits)
	d.state = StateIdle
}
