// Package clock abstrae el tiempo para los componentes que programan timers
// (debounce) o derivan sufijos temporales (slugs).
package clock

import "time"

// Timer es el subconjunto de *time.Timer que usamos.
type Timer = interface{ Stop() bool }

// Clock provee la hora actual y timers de un solo disparo.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// System es el reloj real.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
